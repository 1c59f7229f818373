package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/damiantriebl/pgworkspace/internal/logx"
	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/kryptograf"
	"pkt.systems/kryptograf/keymgmt"
	"pkt.systems/pslog"
)

const (
	credentialExt    = ".enc"
	descriptorPrefix = "pgworkspace:credential:"
)

// Credentials is the secret material stored per profile.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Vault stores per-profile credentials encrypted at rest. A keystore
// bundle holds the root key plus one data-encryption-key descriptor per
// profile; credential files are useless without it.
type Vault struct {
	storePath string
	credDir   string
	log       pslog.Logger
}

// New initializes the vault and ensures the root key exists.
func New(storePath, credDir string) (*Vault, error) {
	return NewWithLogger(storePath, credDir, nil)
}

// NewWithLogger initializes the vault with logging.
func NewWithLogger(storePath, credDir string, logger pslog.Logger) (*Vault, error) {
	if strings.TrimSpace(storePath) == "" {
		return nil, fmt.Errorf("vault key store path is required")
	}
	if strings.TrimSpace(credDir) == "" {
		return nil, fmt.Errorf("vault credential directory is required")
	}
	if err := os.MkdirAll(filepath.Dir(storePath), 0o700); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(credDir, 0o700); err != nil {
		return nil, err
	}
	store, err := keymgmt.LoadProto(storePath)
	if err != nil {
		return nil, err
	}
	if _, err := store.EnsureRootKey(); err != nil {
		return nil, err
	}
	if err := store.Commit(); err != nil {
		return nil, err
	}
	v := &Vault{storePath: storePath, credDir: credDir, log: logger}
	if logger != nil {
		logger.Info("vault ready", "path", storePath)
	}
	return v, nil
}

// Set encrypts and stores credentials for the profile.
func (v *Vault) Set(profileID schema.ProfileID, creds Credentials) error {
	return v.write(profileID, creds, false)
}

// Get decrypts the stored credentials for the profile.
func (v *Vault) Get(profileID schema.ProfileID) (Credentials, error) {
	path := v.credentialPath(profileID)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, fmt.Errorf("%w: %s", schema.ErrNoCredentials, profileID)
		}
		return Credentials{}, err
	}
	material, root, err := v.materialForProfile(profileID, false)
	if err != nil {
		v.warn("vault read failed", profileID, err)
		return Credentials{}, err
	}
	kg := kryptograf.New(root)
	file, err := os.Open(path)
	if err != nil {
		v.warn("vault read failed", profileID, err)
		return Credentials{}, err
	}
	defer func() { _ = file.Close() }()
	reader, err := kg.DecryptReader(file, material)
	if err != nil {
		v.warn("vault read failed", profileID, err)
		return Credentials{}, err
	}
	defer func() { _ = reader.Close() }()
	plain, err := io.ReadAll(reader)
	if err != nil {
		v.warn("vault read failed", profileID, err)
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		v.warn("vault read failed", profileID, err)
		return Credentials{}, err
	}
	if v.log != nil {
		logx.WithProfile(v.log, profileID, "").Debug("vault read ok")
	}
	return creds, nil
}

// Delete removes the stored credentials. Missing credentials are not an
// error.
func (v *Vault) Delete(profileID schema.ProfileID) error {
	err := os.Remove(v.credentialPath(profileID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		v.warn("vault delete failed", profileID, err)
		return err
	}
	if v.log != nil {
		logx.WithProfile(v.log, profileID, "").Info("vault delete ok")
	}
	return nil
}

// Has reports whether credentials exist for the profile.
func (v *Vault) Has(profileID schema.ProfileID) bool {
	_, err := os.Stat(v.credentialPath(profileID))
	return err == nil
}

// List returns every profile id with stored credentials.
func (v *Vault) List() ([]string, error) {
	entries, err := os.ReadDir(v.credDir)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, credentialExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, credentialExt))
	}
	return ids, nil
}

// Rotate mints a fresh data-encryption key for the profile and re-encrypts
// its credentials under it.
func (v *Vault) Rotate(profileID schema.ProfileID) error {
	creds, err := v.Get(profileID)
	if err != nil {
		return err
	}
	return v.write(profileID, creds, true)
}

func (v *Vault) write(profileID schema.ProfileID, creds Credentials, rotate bool) error {
	plain, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	material, root, err := v.materialForProfile(profileID, rotate)
	if err != nil {
		v.warn("vault write failed", profileID, err)
		return err
	}
	kg := kryptograf.New(root)
	tmp, err := os.CreateTemp(v.credDir, "cred-*"+credentialExt)
	if err != nil {
		v.warn("vault write failed", profileID, err)
		return err
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		v.warn("vault write failed", profileID, err)
		return err
	}
	writer, err := kg.EncryptWriter(tmp, material)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		v.warn("vault write failed", profileID, err)
		return err
	}
	if _, err := writer.Write(plain); err != nil {
		_ = writer.Close()
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		v.warn("vault write failed", profileID, err)
		return err
	}
	if err := writer.Close(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		v.warn("vault write failed", profileID, err)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		v.warn("vault write failed", profileID, err)
		return err
	}
	if err := os.Rename(tmpPath, v.credentialPath(profileID)); err != nil {
		_ = os.Remove(tmpPath)
		v.warn("vault write failed", profileID, err)
		return err
	}
	if v.log != nil {
		logx.WithProfile(v.log, profileID, "").Info("vault write ok", "rotated", rotate)
	}
	return nil
}

func (v *Vault) materialForProfile(profileID schema.ProfileID, rotate bool) (keymgmt.Material, keymgmt.RootKey, error) {
	store, err := keymgmt.LoadProto(v.storePath)
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	root, err := store.EnsureRootKey()
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	descName := descriptorPrefix + sanitize(string(profileID))
	contextBytes := []byte(descName)
	var material keymgmt.Material
	if rotate {
		material, err = keymgmt.MintDEK(root, contextBytes)
		if err != nil {
			return keymgmt.Material{}, keymgmt.RootKey{}, err
		}
		if err := store.SetDescriptor(descName, material.Descriptor); err != nil {
			return keymgmt.Material{}, keymgmt.RootKey{}, err
		}
	} else {
		material, err = store.EnsureDescriptor(descName, root, contextBytes)
		if err != nil {
			return keymgmt.Material{}, keymgmt.RootKey{}, err
		}
	}
	if err := store.Commit(); err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	return material, root, nil
}

func (v *Vault) credentialPath(profileID schema.ProfileID) string {
	return filepath.Join(v.credDir, sanitize(string(profileID))+credentialExt)
}

func (v *Vault) warn(msg string, profileID schema.ProfileID, err error) {
	if v.log != nil {
		logx.WithProfile(v.log, profileID, "").Warn(msg, "err", err)
	}
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
