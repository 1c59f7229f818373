package schema

// TabID identifies a workspace tab.
type TabID string

// TabKind describes what a tab presents.
type TabKind string

const (
	// KindConnection is the permanent connection panel.
	KindConnection TabKind = "connection"
	// KindSchema is a schema browser panel.
	KindSchema TabKind = "schema"
	// KindQuery is a query editor panel.
	KindQuery TabKind = "query"
)

// ProfileID identifies a connection profile.
type ProfileID string

// Environment categorizes a connection target.
type Environment string

const (
	// EnvDevelopment marks a development connection.
	EnvDevelopment Environment = "development"
	// EnvStaging marks a staging connection.
	EnvStaging Environment = "staging"
	// EnvProduction marks a production connection.
	EnvProduction Environment = "production"
	// EnvTesting marks a testing connection.
	EnvTesting Environment = "testing"
)

// SSLMode selects the libpq-compatible sslmode parameter.
type SSLMode string

const (
	// SSLDisable disables TLS.
	SSLDisable SSLMode = "disable"
	// SSLAllow prefers plaintext but allows TLS.
	SSLAllow SSLMode = "allow"
	// SSLPrefer prefers TLS but allows plaintext.
	SSLPrefer SSLMode = "prefer"
	// SSLRequire requires TLS without verification.
	SSLRequire SSLMode = "require"
	// SSLVerifyCA requires TLS and CA verification.
	SSLVerifyCA SSLMode = "verify-ca"
	// SSLVerifyFull requires TLS with full hostname verification.
	SSLVerifyFull SSLMode = "verify-full"
)
