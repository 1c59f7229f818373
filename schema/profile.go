package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ConnectionProfile is a saved database connection with organizational
// metadata. Passwords never live here; they belong to the credential vault.
type ConnectionProfile struct {
	ID          ProfileID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Folder      string           `json:"folder,omitempty"`
	Config      ConnectionConfig `json:"config"`
	Metadata    ProfileMetadata  `json:"metadata"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	LastUsed    *time.Time       `json:"last_used,omitempty"`
	UseCount    uint64           `json:"use_count"`
}

// ConnectionConfig holds every parameter needed to reach a server.
// Durations are persisted as whole seconds.
type ConnectionConfig struct {
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`

	ConnectionTimeoutSecs int `json:"connection_timeout"`
	QueryTimeoutSecs      int `json:"query_timeout"`
	MaxConnections        int `json:"max_connections"`
	IdleTimeoutSecs       int `json:"idle_timeout"`
	RetryAttempts         int `json:"retry_attempts"`
	RetryDelaySecs        int `json:"retry_delay"`

	SSL SSLConfig `json:"ssl_config"`

	CustomParameters map[string]string `json:"custom_parameters,omitempty"`

	// ConnectionStringTemplate, when set, overrides URL construction.
	// Placeholders: {host} {port} {database} {username} {password}.
	ConnectionStringTemplate string `json:"connection_string_template,omitempty"`
}

// SSLConfig carries TLS settings for a connection.
type SSLConfig struct {
	Mode           SSLMode `json:"mode"`
	CACertPath     string  `json:"ca_cert_path,omitempty"`
	ClientCertPath string  `json:"client_cert_path,omitempty"`
	ClientKeyPath  string  `json:"client_key_path,omitempty"`
}

// ProfileMetadata is display and behavior metadata for a profile.
type ProfileMetadata struct {
	Color             string      `json:"color,omitempty"`
	Icon              string      `json:"icon,omitempty"`
	IsFavorite        bool        `json:"is_favorite"`
	AutoConnect       bool        `json:"auto_connect"`
	Environment       Environment `json:"environment"`
	MonitoringEnabled bool        `json:"monitoring_enabled"`
}

// DefaultConnectionConfig returns a localhost postgres config with the
// stock timeout and retry settings.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Host:                  "localhost",
		Port:                  5432,
		Database:              "postgres",
		Username:              "postgres",
		ConnectionTimeoutSecs: 30,
		QueryTimeoutSecs:      300,
		MaxConnections:        10,
		IdleTimeoutSecs:       600,
		RetryAttempts:         3,
		RetryDelaySecs:        1,
		SSL:                   SSLConfig{Mode: SSLPrefer},
	}
}

// ConnectionString builds a postgresql:// URL for the config. The password
// is injected at call time and never stored on the profile.
func (c ConnectionConfig) ConnectionString(password string) string {
	if tpl := strings.TrimSpace(c.ConnectionStringTemplate); tpl != "" {
		replacer := strings.NewReplacer(
			"{host}", c.Host,
			"{port}", fmt.Sprintf("%d", c.Port),
			"{database}", c.Database,
			"{username}", c.Username,
			"{password}", password,
		)
		return replacer.Replace(tpl)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "postgresql://%s:%s@%s:%d/%s", c.Username, password, c.Host, c.Port, c.Database)
	mode := c.SSL.Mode
	if mode == "" {
		mode = SSLPrefer
	}
	fmt.Fprintf(&b, "?sslmode=%s", mode)
	fmt.Fprintf(&b, "&connect_timeout=%d", c.ConnectionTimeoutSecs)
	keys := make([]string, 0, len(c.CustomParameters))
	for key := range c.CustomParameters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "&%s=%s", key, c.CustomParameters[key])
	}
	return b.String()
}

// Addr returns the host:port dial target.
func (c ConnectionConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HasTag reports whether the profile carries the tag (case-insensitive).
func (p ConnectionProfile) HasTag(tag string) bool {
	for _, candidate := range p.Tags {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}
