package contract

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/oedokumaci/catalogsync/schema"
)

// Default values for configuration.
const (
	DefaultBatchLimit         = 10000
	DefaultRefreshInterval    = 15 * time.Second
	MinRefreshInterval        = time.Second
	DefaultCacheSchemaVersion = 1
	DefaultInstallID          = "local"
	DefaultScopeMemoSize      = 64
	DefaultSourceTimeout      = 30 * time.Second
	MaxBatchLimit             = 100000
)

// CatalogCacheName is the logical name of the full catalog snapshot slot.
const CatalogCacheName = "allAssetNodes"

// Config holds the runtime configuration for syncing.
// This struct remains the "final, validated" config.
type Config struct {
	Source        string
	SourceTimeout time.Duration

	BatchLimit         int
	RefreshInterval    time.Duration
	CacheSchemaVersion int
	InstallID          string
	ErrorPolicy        schema.ErrorPolicy

	Scope         *schema.Scope // nil means the full paginated catalog
	ScopeMemoSize int

	View       schema.ViewMode
	Prefix     []string
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	LogLevel slog.Level
	LogJSON  bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	PrefixArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Source             string `mapstructure:"source"`
	SourceTimeout      string `mapstructure:"source-timeout"`
	BatchLimit         int    `mapstructure:"batch-limit"`
	RefreshInterval    string `mapstructure:"refresh-interval"`
	CacheSchemaVersion int    `mapstructure:"cache-schema-version"`
	InstallID          string `mapstructure:"install-id"`
	ErrorPolicy        string `mapstructure:"error-policy"`
	ScopeMemoSize      int    `mapstructure:"scope-memo-size"`
	View               string `mapstructure:"view"`
	Prefix             string `mapstructure:"prefix"`
	Output             string `mapstructure:"output"`
	OutputFile         string `mapstructure:"output-file"`
	Width              int    `mapstructure:"width"`
	Color              string `mapstructure:"color"`
	CacheBackend       string `mapstructure:"cache-backend"`
	CacheDBConnect     string `mapstructure:"cache-db-connect"`
	RunsBackend        string `mapstructure:"runs-backend"`
	RunsDBConnect      string `mapstructure:"runs-db-connect"`
	LogLevel           string `mapstructure:"log-level"`
	LogJSON            bool   `mapstructure:"log-json"`

	// --- Scope selection ---
	ScopeGroup      string `mapstructure:"scope-group"`
	ScopeRepository string `mapstructure:"scope-repository"`
	ScopeLocation   string `mapstructure:"scope-location"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Prefix != nil {
		clone.Prefix = make([]string, len(c.Prefix))
		copy(clone.Prefix, c.Prefix)
	}
	if c.Scope != nil {
		scope := *c.Scope
		clone.Scope = &scope
	}
	return &clone
}

// CacheKey returns the cache namespace of the full catalog snapshot.
func (c *Config) CacheKey() string {
	return CacheNamespace(c.InstallID, CatalogCacheName)
}

// CacheNamespace derives a cache key from a per-install identifier and a logical name.
func CacheNamespace(installID, name string) string {
	if installID == "" {
		installID = DefaultInstallID
	}
	return installID + "/" + name
}

// ProcessAndValidate turns the raw input into the validated runtime config.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	processScope(cfg, input)
	cfg.Prefix = ParsePrefix(input.Prefix, input.PrefixArgs)
	return nil
}

// ValidateDatabaseConnectionString performs a basic shape check of a connection string.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ValidateSource checks that the source is an http(s) URL or an existing file.
func ValidateSource(source string) error {
	if source == "" {
		return fmt.Errorf("--source is required (http(s) URL or path to a catalog file)")
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		u, err := url.Parse(source)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid source URL %q", source)
		}
		return nil
	}
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("catalog file %q is not readable: %w", source, err)
	}
	return nil
}

// ParsePrefix builds a key prefix from a slash-separated flag and positional segments.
// Positional segments win when both are present.
func ParsePrefix(flag string, args []string) []string {
	if len(args) > 0 {
		prefix := make([]string, 0, len(args))
		for _, a := range args {
			if a = strings.TrimSpace(a); a != "" {
				prefix = append(prefix, a)
			}
		}
		return prefix
	}
	var prefix []string
	for part := range strings.SplitSeq(flag, "/") {
		if part = strings.TrimSpace(part); part != "" {
			prefix = append(prefix, part)
		}
	}
	return prefix
}

// validateSimpleInputs validates the scalar and enum inputs.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = input.Source

	if input.BatchLimit <= 0 || input.BatchLimit > MaxBatchLimit {
		return fmt.Errorf("--batch-limit must be between 1 and %d", MaxBatchLimit)
	}
	cfg.BatchLimit = input.BatchLimit

	if input.CacheSchemaVersion < 1 {
		return fmt.Errorf("--cache-schema-version must be at least 1")
	}
	cfg.CacheSchemaVersion = input.CacheSchemaVersion

	cfg.InstallID = strings.TrimSpace(input.InstallID)
	if cfg.InstallID == "" {
		cfg.InstallID = DefaultInstallID
	}

	cfg.ErrorPolicy = schema.ErrorPolicy(strings.ToLower(input.ErrorPolicy))
	if _, ok := schema.ValidErrorPolicies[cfg.ErrorPolicy]; !ok {
		return fmt.Errorf("invalid error policy '%s'. must be swallow or surface", input.ErrorPolicy)
	}

	cfg.View = schema.ViewMode(strings.ToLower(input.View))
	if _, ok := schema.ValidViewModes[cfg.View]; !ok {
		return fmt.Errorf("invalid view '%s'. must be flat or directory", input.View)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output '%s'. must be text, json, csv or parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && input.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}
	cfg.OutputFile = input.OutputFile

	if input.Width < 0 {
		return fmt.Errorf("--width cannot be negative")
	}
	cfg.Width = input.Width

	useColors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = useColors

	cfg.ScopeMemoSize = input.ScopeMemoSize
	if cfg.ScopeMemoSize <= 0 {
		cfg.ScopeMemoSize = DefaultScopeMemoSize
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(input.LogLevel)); err != nil {
		return fmt.Errorf("invalid --log-level '%s': %w", input.LogLevel, err)
	}
	cfg.LogJSON = input.LogJSON

	return nil
}

// validateBackendConfigs validates cache and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}
	if cfg.RunsBackend != schema.SQLiteBackend && cfg.RunsBackend == cfg.CacheBackend && cfg.RunsDBConnect == cfg.CacheDBConnect {
		return fmt.Errorf("runs-db-connect must differ from cache-db-connect")
	}
	return nil
}

// processDurations parses the refresh interval and source timeout.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	interval, err := time.ParseDuration(input.RefreshInterval)
	if err != nil {
		return fmt.Errorf("invalid --refresh-interval '%s': %w", input.RefreshInterval, err)
	}
	if interval < MinRefreshInterval {
		return fmt.Errorf("--refresh-interval must be at least %s", MinRefreshInterval)
	}
	cfg.RefreshInterval = interval

	cfg.SourceTimeout = DefaultSourceTimeout
	if input.SourceTimeout != "" {
		timeout, err := time.ParseDuration(input.SourceTimeout)
		if err != nil {
			return fmt.Errorf("invalid --source-timeout '%s': %w", input.SourceTimeout, err)
		}
		cfg.SourceTimeout = timeout
	}
	return nil
}

// processScope builds the selection scope when any scope flag is set.
func processScope(cfg *Config, input *ConfigRawInput) {
	scope := schema.Scope{
		Group:      strings.TrimSpace(input.ScopeGroup),
		Repository: strings.TrimSpace(input.ScopeRepository),
		Location:   strings.TrimSpace(input.ScopeLocation),
	}
	if scope.IsZero() {
		cfg.Scope = nil
		return
	}
	cfg.Scope = &scope
}
