// Package wavy implements the core ingest-validate-store-serve pipeline of
// the Wavy Server HLS node: the TLS session state machine, request router,
// archive extractor, format validators, asset staging/promotion, and the
// storage layout they all share.
package wavy

import "wavyserver/internal/platform/config"

// Build-time defaults. Every Default* value here is overridable via
// environment variable (see LoadConfig) following the platform/config
// convention; the route constants and ServerIdent are fixed.
const (
	DefaultPort        = 8443
	DefaultMetricsPort = 9090

	// DefaultBodyCeiling is the default request body size ceiling: 200 MiB.
	DefaultBodyCeiling int64 = 200 << 20

	DefaultStorageRoot = "/var/lib/wavyserver/storage"
	DefaultTempRoot    = "/var/lib/wavyserver/tmp"
	DefaultLockPath    = "/var/lib/wavyserver/wavyserver.lock"
	DefaultCertFile    = "/etc/wavyserver/cert.pem"
	DefaultKeyFile     = "/etc/wavyserver/key.pem"

	// DefaultMetadataTopBoundary is the literal marker a metadata upload body
	// is expected to begin with; the inner text runs from just after this
	// marker to the first trailing run of dashes.
	DefaultMetadataTopBoundary = "------WavyFormBoundary"

	// MetadataUploadPath and ClientsPath are fixed route constants (§4.5).
	MetadataUploadPath = "/toml/upload"
	ClientsPath        = "/hls/clients"

	// ServerIdent is the value of the Server response header.
	ServerIdent = "Wavy Server"
)

// Config holds every build-time constant the core needs, each resolved once
// at startup from environment overrides with a compiled-in fallback.
type Config struct {
	Port        int
	MetricsPort int
	BodyCeiling int64

	StorageRoot string
	TempRoot    string
	LockPath    string

	CertFile string
	KeyFile  string

	MetadataTopBoundary string
}

// LoadConfig resolves a Config from the environment, falling back to the
// package defaults for anything unset.
func LoadConfig() *Config {
	return &Config{
		Port:        config.GetEnvInt("WAVY_PORT", DefaultPort),
		MetricsPort: config.GetEnvInt("WAVY_METRICS_PORT", DefaultMetricsPort),
		BodyCeiling: config.GetEnvInt64("WAVY_BODY_CEILING_BYTES", DefaultBodyCeiling),

		StorageRoot: config.GetEnv("WAVY_STORAGE_ROOT", DefaultStorageRoot),
		TempRoot:    config.GetEnv("WAVY_TEMP_ROOT", DefaultTempRoot),
		LockPath:    config.GetEnv("WAVY_LOCK_PATH", DefaultLockPath),

		CertFile: config.GetEnv("WAVY_CERT_FILE", DefaultCertFile),
		KeyFile:  config.GetEnv("WAVY_KEY_FILE", DefaultKeyFile),

		MetadataTopBoundary: config.GetEnv("WAVY_METADATA_BOUNDARY", DefaultMetadataTopBoundary),
	}
}
