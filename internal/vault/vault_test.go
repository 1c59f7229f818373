package vault

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/damiantriebl/pgworkspace/schema"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	dir := t.TempDir()
	v, err := New(filepath.Join(dir, "keys", "store.pb"), filepath.Join(dir, "credentials"))
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return v
}

func TestSetGetRoundTrip(t *testing.T) {
	v := newTestVault(t)
	want := Credentials{Username: "admin", Password: "hunter2"}
	if err := v.Set("profile-1", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := v.Get("profile-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestGetMissingCredentials(t *testing.T) {
	v := newTestVault(t)
	if _, err := v.Get("ghost"); !errors.Is(err, schema.ErrNoCredentials) {
		t.Fatalf("expected no-credentials error, got %v", err)
	}
}

func TestCredentialsEncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	credDir := filepath.Join(dir, "credentials")
	v, err := New(filepath.Join(dir, "store.pb"), credDir)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	if err := v.Set("profile-1", Credentials{Username: "admin", Password: "plaintext-secret"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	entries, err := os.ReadDir(credDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one credential file, got %d", len(entries))
	}
	raw, err := os.ReadFile(filepath.Join(credDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read credential: %v", err)
	}
	if strings.Contains(string(raw), "plaintext-secret") {
		t.Fatalf("password stored in the clear")
	}
	info, err := os.Stat(filepath.Join(credDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %o", info.Mode().Perm())
	}
}

func TestSetOverwrites(t *testing.T) {
	v := newTestVault(t)
	if err := v.Set("p", Credentials{Username: "a", Password: "one"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := v.Set("p", Credentials{Username: "a", Password: "two"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := v.Get("p")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Password != "two" {
		t.Fatalf("expected updated password, got %q", got.Password)
	}
}

func TestDeleteAndHas(t *testing.T) {
	v := newTestVault(t)
	if v.Has("p") {
		t.Fatalf("unexpected credentials before set")
	}
	if err := v.Set("p", Credentials{Username: "a", Password: "x"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !v.Has("p") {
		t.Fatalf("expected credentials after set")
	}
	if err := v.Delete("p"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v.Has("p") {
		t.Fatalf("expected credentials gone after delete")
	}
	if err := v.Delete("p"); err != nil {
		t.Fatalf("double delete must be a no-op, got %v", err)
	}
}

func TestList(t *testing.T) {
	v := newTestVault(t)
	for _, id := range []schema.ProfileID{"alpha", "bravo"} {
		if err := v.Set(id, Credentials{Username: "u", Password: "p"}); err != nil {
			t.Fatalf("set %q: %v", id, err)
		}
	}
	ids, err := v.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "bravo" {
		t.Fatalf("got %v", ids)
	}
}

func TestRotateKeepsCredentialsReadable(t *testing.T) {
	v := newTestVault(t)
	want := Credentials{Username: "admin", Password: "before-rotation"}
	if err := v.Set("p", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := v.Rotate("p"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	got, err := v.Get("p")
	if err != nil {
		t.Fatalf("get after rotate: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestRotateMissingCredentials(t *testing.T) {
	v := newTestVault(t)
	if err := v.Rotate("ghost"); !errors.Is(err, schema.ErrNoCredentials) {
		t.Fatalf("expected no-credentials error, got %v", err)
	}
}

func TestVaultSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "store.pb")
	credDir := filepath.Join(dir, "credentials")
	v, err := New(storePath, credDir)
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	want := Credentials{Username: "admin", Password: "persisted"}
	if err := v.Set("p", want); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := New(storePath, credDir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get("p")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
