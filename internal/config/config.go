package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Default values and hard-coded URLs for various configurations.
const (
	DefaultWebPort     = 8192
	DefaultDataDir     = "/data" // Inside the container
	DefaultDBFileName  = "oecall.json"
	MinLookupCacheTTL  = 10 * time.Second
	MinSnapshotTTL     = 10 * time.Second
	DefaultHTTPTimeout = 10 * time.Second
)

var (
	// These are baked-in, not user-configurable. Keep them package-level so they can be
	// changed by developers in code if necessary.
	QRZAPIURL     = "https://xmldata.qrz.com/xml/current/"
	HamQTHDXCCURL = "https://www.hamqth.com/dxcc.php"

	// Default location of the extracted registry listing consumed by the
	// rebuild job. The PDF-to-text step runs upstream of this program.
	RegistrySourceURL = "https://www.bmk.gv.at/rufzeichenliste/rufzeichenliste.txt"
)

// RedisConfig holds configuration for the optional Redis lookup cache tier.
type RedisConfig struct {
	Enabled            bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host               string `env:"REDIS_HOST"`
	Port               string `env:"REDIS_PORT" envDefault:"6379"`
	User               string `env:"REDIS_USER"`
	Password           string `env:"REDIS_PASSWORD"`
	DB                 int    `env:"REDIS_DB" envDefault:"0"`
	UseTLS             bool   `env:"REDIS_USE_TLS" envDefault:"false"`
	InsecureSkipVerify bool   `env:"REDIS_INSECURE_SKIP_VERIFY" envDefault:"false"`
}

// QRZConfig holds credentials for the QRZ.com XML API. Lookups against QRZ
// are skipped entirely when no username is configured.
type QRZConfig struct {
	Username string `env:"QRZ_USERNAME"`
	Password string `env:"QRZ_PASSWORD"`
}

// Config holds all application configuration.
type Config struct {
	WebPort int    `env:"WEBPORT" envDefault:"8192"`
	BaseURL string `env:"WEBURL" envDefault:"/"`
	DataDir string `env:"DATA_DIR" envDefault:"/data"` // Directory for the database document and SQLite files

	// Name of the callsign database document inside DataDir.
	DBFileName string `env:"DB_FILENAME" envDefault:"oecall.json"`

	// Lookup result cache. Negative results are cached with the same TTL.
	LookupCacheEnabled bool          `env:"LOOKUP_CACHE_ENABLED" envDefault:"true"`
	LookupCacheTTL     time.Duration `env:"LOOKUP_CACHE_TTL" envDefault:"1h"`

	// How long a loaded database snapshot is served before the file is re-read.
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"5m"`

	// External source behavior.
	ExternalTimeout    time.Duration `env:"EXTERNAL_TIMEOUT" envDefault:"10s"`
	SourceMinInterval  time.Duration `env:"SOURCE_MIN_INTERVAL" envDefault:"1s"`
	BatchLookupWorkers int           `env:"BATCH_LOOKUP_WORKERS" envDefault:"4"`

	// Where the rebuild job fetches the extracted registry listing from, if
	// no local file is given on the command line.
	RegistrySourceURL string `env:"REGISTRY_SOURCE_URL"`

	QRZ   QRZConfig
	Redis RedisConfig
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	if err := env.Parse(&cfg.QRZ); err != nil {
		return nil, fmt.Errorf("failed to parse QRZ environment variables: %w", err)
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, fmt.Errorf("failed to parse Redis environment variables: %w", err)
	}

	if cfg.RegistrySourceURL == "" {
		cfg.RegistrySourceURL = RegistrySourceURL
	}

	// Clamp TTLs to sane minimums; a zero TTL would turn every request into
	// a file re-read or an external call.
	if cfg.LookupCacheTTL < MinLookupCacheTTL {
		cfg.LookupCacheTTL = MinLookupCacheTTL
	}
	if cfg.SnapshotTTL < MinSnapshotTTL {
		cfg.SnapshotTTL = MinSnapshotTTL
	}
	if cfg.BatchLookupWorkers < 1 {
		cfg.BatchLookupWorkers = 1
	}

	// Ensure DataDir exists (it's essential for the database document and SQLite)
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	return cfg, nil
}
