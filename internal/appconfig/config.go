package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string         `mapstructure:"state_dir" yaml:"state_dir"`
	Storage       StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Profiles      ProfilesConfig `mapstructure:"profiles" yaml:"profiles"`
	Vault         VaultConfig    `mapstructure:"vault" yaml:"vault"`
	Health        HealthConfig   `mapstructure:"health" yaml:"health"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Storage backends for the session slot.
const (
	// BackendFile stores slots as JSON files.
	BackendFile = "file"
	// BackendSQLite stores slots in a single key-value database.
	BackendSQLite = "sqlite"
)

// StorageConfig selects where the session slot lives.
type StorageConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// ProfilesConfig configures connection profile storage.
type ProfilesConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// VaultConfig configures the credential vault.
type VaultConfig struct {
	KeyStorePath  string `mapstructure:"key_store_path" yaml:"key_store_path"`
	CredentialDir string `mapstructure:"credential_dir" yaml:"credential_dir"`
}

// HealthConfig configures connection health checking.
type HealthConfig struct {
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	base := filepath.Join(home, ".pgworkspace")
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(base, "state"),
		Storage: StorageConfig{
			Backend:    BackendFile,
			SQLitePath: filepath.Join(base, "state", "workspace.db"),
		},
		Profiles: ProfilesConfig{
			Path: filepath.Join(base, "profiles.json"),
		},
		Vault: VaultConfig{
			KeyStorePath:  filepath.Join(base, "vault", "keys.bundle"),
			CredentialDir: filepath.Join(base, "vault", "credentials"),
		},
		Health: HealthConfig{
			HistoryLimit: 100,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pgworkspace", "config.yaml"), nil
}
