package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Fatalf("expected file backend default, got %q", cfg.Storage.Backend)
	}
	if cfg.ConfigVersion != CurrentConfigVersion {
		t.Fatalf("expected current version, got %d", cfg.ConfigVersion)
	}
	if cfg.Health.HistoryLimit != 100 {
		t.Fatalf("expected default history limit, got %d", cfg.Health.HistoryLimit)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
state_dir: /var/lib/pgworkspace
storage:
  backend: sqlite
  sqlite_path: /var/lib/pgworkspace/state.db
health:
  history_limit: 25
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateDir != "/var/lib/pgworkspace" {
		t.Fatalf("got state dir %q", cfg.StateDir)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.SQLitePath != "/var/lib/pgworkspace/state.db" {
		t.Fatalf("storage override lost: %+v", cfg.Storage)
	}
	if cfg.Health.HistoryLimit != 25 {
		t.Fatalf("got history limit %d", cfg.Health.HistoryLimit)
	}
	if cfg.Profiles.Path == "" {
		t.Fatalf("expected defaulted profile path")
	}
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	path := writeConfig(t, "config_version: 99\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
storage:
  backend: redis
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "storage.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestLoadRejectsNonPositiveHistoryLimit(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
health:
  history_limit: 0
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "history_limit") {
		t.Fatalf("expected history limit error, got %v", err)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("PGWORKSPACE_TEST_DIR", "/srv/pg")
	path := writeConfig(t, `
config_version: 1
state_dir: $PGWORKSPACE_TEST_DIR/state
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateDir != "/srv/pg/state" {
		t.Fatalf("got %q", cfg.StateDir)
	}
}

func TestLoadKeepsUnknownEnvReference(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
state_dir: $PGWORKSPACE_DEFINITELY_UNSET/state
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateDir != "$PGWORKSPACE_DEFINITELY_UNSET/state" {
		t.Fatalf("got %q", cfg.StateDir)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("got %q", written)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Fatalf("got backend %q", cfg.Storage.Backend)
	}

	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
}
