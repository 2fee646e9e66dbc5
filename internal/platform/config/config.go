package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pkgstrings "padron/pkg/platform/strings"
)

// Environment variables. Each overrides the matching YAML key.
const (
	EnvConfigPath         = "PADRON_CONFIG"
	EnvAddr               = "PADRON_ADDR"
	EnvRegistryURL        = "PADRON_REGISTRY_URL"
	EnvRegistryToken      = "PADRON_REGISTRY_TOKEN"
	EnvRegistryQueryParam = "PADRON_REGISTRY_QUERY_PARAM"
	EnvLogLevel           = "PADRON_LOG_LEVEL"
	EnvLogFormat          = "PADRON_LOG_FORMAT"
	EnvKafkaBrokers       = "PADRON_KAFKA_BROKERS"
	EnvAuditTopic         = "PADRON_AUDIT_TOPIC"
	EnvHistoryCapacity    = "PADRON_HISTORY_CAPACITY"
	EnvOTLPEndpoint       = "PADRON_OTLP_ENDPOINT"
	EnvTraceSampling      = "PADRON_TRACE_SAMPLING"
)

const (
	DefaultAddr            = ":8080"
	DefaultQueryParam      = "numero"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultServiceName     = "padron"
	DefaultSamplingRate    = 1.0
)

// Config is read once at startup and shared by the server and the CLI.
type Config struct {
	Server   Server   `yaml:"server"`
	Registry Registry `yaml:"registry"`
	Log      Log      `yaml:"log"`
	Audit    Audit    `yaml:"audit"`
	History  History  `yaml:"history"`
	Tracing  Tracing  `yaml:"tracing"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Registry locates the identity registry. Token is the process-wide default
// credential and may be empty.
type Registry struct {
	URL        string `yaml:"url"`
	Token      string `yaml:"token"`
	QueryParam string `yaml:"query_param"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Audit configures the Kafka audit sink. No brokers means log-only auditing.
type Audit struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// History bounds the CLI session history. Zero is unbounded.
type History struct {
	Capacity int `yaml:"capacity"`
}

// Tracing configures span export over OTLP/HTTP. An empty endpoint disables
// export.
type Tracing struct {
	Endpoint     string  `yaml:"endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Enabled reports whether spans should be exported.
func (t Tracing) Enabled() bool { return t.Endpoint != "" }

// Load builds the configuration from the YAML file at path (skipped when
// path is empty) overlaid with environment variables, applies defaults and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		fromFile, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fromFile
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv loads the configuration using the file named by PADRON_CONFIG, if any.
func FromEnv() (Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

func readFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, EnvAddr)
	setString(&cfg.Registry.URL, EnvRegistryURL)
	setString(&cfg.Registry.Token, EnvRegistryToken)
	setString(&cfg.Registry.QueryParam, EnvRegistryQueryParam)
	setString(&cfg.Log.Level, EnvLogLevel)
	setString(&cfg.Log.Format, EnvLogFormat)
	setString(&cfg.Audit.Topic, EnvAuditTopic)
	if v, ok := os.LookupEnv(EnvKafkaBrokers); ok {
		cfg.Audit.Brokers = pkgstrings.DedupeAndTrim(strings.Split(v, ","))
	}
	if v, ok := os.LookupEnv(EnvHistoryCapacity); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHistoryCapacity, err)
		}
		cfg.History.Capacity = n
	}
	setString(&cfg.Tracing.Endpoint, EnvOTLPEndpoint)
	if v, ok := os.LookupEnv(EnvTraceSampling); ok && strings.TrimSpace(v) != "" {
		rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTraceSampling, err)
		}
		cfg.Tracing.SamplingRate = rate
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Registry.QueryParam == "" {
		c.Registry.QueryParam = DefaultQueryParam
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Audit.Brokers = pkgstrings.DedupeAndTrim(c.Audit.Brokers)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
	if c.Tracing.SamplingRate == 0 {
		c.Tracing.SamplingRate = DefaultSamplingRate
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Registry.URL == "" {
		errs = append(errs, fmt.Errorf("registry url is required (set %s)", EnvRegistryURL))
	} else if u, err := url.Parse(c.Registry.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("registry url %q must be an absolute http(s) URL", c.Registry.URL))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.History.Capacity < 0 {
		errs = append(errs, errors.New("history capacity must not be negative"))
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace sampling rate %v must be within [0, 1]", c.Tracing.SamplingRate))
	}
	return errors.Join(errs...)
}
