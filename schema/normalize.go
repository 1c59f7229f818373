package schema

import "strings"

// NormalizeTabKind maps arbitrary input onto a known tab kind. Unknown
// values fall back to the query kind so a stale persisted tab still loads.
func NormalizeTabKind(value string) TabKind {
	switch TabKind(strings.TrimSpace(strings.ToLower(value))) {
	case KindConnection:
		return KindConnection
	case KindSchema:
		return KindSchema
	default:
		return KindQuery
	}
}

// NormalizeSSLMode validates an sslmode value, defaulting to prefer.
func NormalizeSSLMode(value string) SSLMode {
	switch SSLMode(strings.TrimSpace(strings.ToLower(value))) {
	case SSLDisable:
		return SSLDisable
	case SSLAllow:
		return SSLAllow
	case SSLRequire:
		return SSLRequire
	case SSLVerifyCA:
		return SSLVerifyCA
	case SSLVerifyFull:
		return SSLVerifyFull
	default:
		return SSLPrefer
	}
}

// NormalizeEnvironment validates an environment label, defaulting to
// development. Unknown non-empty labels are preserved as-is.
func NormalizeEnvironment(value string) Environment {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	switch Environment(trimmed) {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTesting:
		return Environment(trimmed)
	}
	if trimmed == "" {
		return EnvDevelopment
	}
	return Environment(trimmed)
}
