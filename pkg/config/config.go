// Package config loads and validates wosp configuration from YAML files with
// environment-variable overrides. Query, index and output sections feed the
// search core; the remaining sections configure the optional services
// around it (HTTP server, Postgres source, Kafka analytics, Redis cache).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Query     QueryConfig     `yaml:"query"`
	Index     IndexConfig     `yaml:"index"`
	Output    OutputConfig    `yaml:"output"`
	Sources   SourcesConfig   `yaml:"sources"`
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// AnalyticsConfig configures the analytics service.
type AnalyticsConfig struct {
	Port             int           `yaml:"port"`
	Snapshots        bool          `yaml:"snapshots"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// QueryConfig holds the defaults applied to every query.
type QueryConfig struct {
	DefaultOperator string `yaml:"defaultOperator"`
	CaseMode        string `yaml:"caseMode"`
	EditBudget      int    `yaml:"editBudget"`
	// ProximityMode is "exclusive" (the right match must lie inside the
	// window) or "inclusive" (it only has to overlap it).
	ProximityMode string `yaml:"proximityMode"`
	Wildcard      string `yaml:"wildcard"`
	Truncation    string `yaml:"truncation"`
	QuoteChars    string `yaml:"quoteChars"`
	MaxExpansions int    `yaml:"maxExpansions"`
	Workers       int    `yaml:"workers"`
}

// IndexConfig controls how source words are reduced before indexing.
type IndexConfig struct {
	CaseSensitive bool `yaml:"caseSensitive"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format     string `yaml:"format"`
	Element    string `yaml:"element"`
	Before     int    `yaml:"before"`
	After      int    `yaml:"after"`
	Filename   bool   `yaml:"filename"`
	LineNumber bool   `yaml:"lineNumber"`
	PageNumber bool   `yaml:"pageNumber"`
	Maximum    int    `yaml:"maximum"`
}

// SourcesConfig describes where documents come from when they are not
// given as files.
type SourcesConfig struct {
	Postgres PostgresSourceConfig `yaml:"postgres"`
}

// PostgresSourceConfig names the table read by the Postgres source. Each row
// becomes one document.
type PostgresSourceConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Table      string `yaml:"table"`
	NameColumn string `yaml:"nameColumn"`
	BodyColumn string `yaml:"bodyColumn"`
	Retries    int    `yaml:"retries"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// RateLimit is the number of requests a client may make per minute;
	// 0 disables limiting.
	RateLimit   int      `yaml:"rateLimit"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	QueryEvents string `yaml:"queryEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	Timeout              time.Duration `yaml:"timeout"`
	MaxConcurrentQueries int           `yaml:"maxConcurrentQueries"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig turns span logging on or off.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config holding the built-in defaults.
func Default() *Config {
	return &Config{
		Query: QueryConfig{
			DefaultOperator: "OR",
			CaseMode:        "insensitive",
			ProximityMode:   "exclusive",
			Wildcard:        "?",
			Truncation:      "$#",
			QuoteChars:      `"`,
			MaxExpansions:   100000,
			Workers:         4,
		},
		Index: IndexConfig{
			CaseSensitive: true,
		},
		Output: OutputConfig{
			Format:     "matches",
			Element:    "line",
			Before:     1,
			After:      1,
			Filename:   true,
			LineNumber: true,
		},
		Sources: SourcesConfig{
			Postgres: PostgresSourceConfig{
				Table:      "documents",
				NameColumn: "name",
				BodyColumn: "body",
				Retries:    3,
			},
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       600,
			CORSOrigins:     []string{"*"},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "wosp",
			User:            "wosp",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "wosp-analytics",
			Topics: KafkaTopics{
				QueryEvents: "wosp-query-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Search: SearchConfig{
			Timeout:              10 * time.Second,
			MaxConcurrentQueries: 16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
		Analytics: AnalyticsConfig{
			Port:             8081,
			SnapshotInterval: time.Minute,
		},
	}
}

var (
	operatorNames  = []string{"OR", "AND", "XOR"}
	caseModeNames  = []string{"insensitive", "sensitive", "lower", "upper", "title"}
	proximityModes = []string{"exclusive", "inclusive"}
	outputFormats  = []string{"matches", "documents", "excerpts", "json"}
	elementNames   = []string{"word", "clause", "line", "sentence", "paragraph", "page"}
	logLevelNames  = []string{"debug", "info", "warn", "error"}
	logFormatNames = []string{"text", "json"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

// Validate rejects values the search core cannot work with. All problems are
// reported together.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	q := c.Query
	if !oneOf(q.DefaultOperator, operatorNames) {
		add("query.defaultOperator %q is not a boolean operator", q.DefaultOperator)
	}
	if !oneOf(q.CaseMode, caseModeNames) {
		add("query.caseMode %q is unknown", q.CaseMode)
	}
	if q.EditBudget < 0 {
		add("query.editBudget must not be negative")
	}
	if !oneOf(q.ProximityMode, proximityModes) {
		add("query.proximityMode %q is unknown", q.ProximityMode)
	}
	if utf8.RuneCountInString(q.Wildcard) != 1 {
		add("query.wildcard must be a single character")
	}
	if q.Truncation == "" {
		add("query.truncation must name at least one marker")
	}
	if strings.ContainsAny(q.Truncation, q.Wildcard) {
		add("query.truncation must not contain the wildcard")
	}
	if q.QuoteChars == "" {
		add("query.quoteChars must not be empty")
	}
	if q.MaxExpansions < 0 {
		add("query.maxExpansions must not be negative")
	}

	o := c.Output
	if !oneOf(o.Format, outputFormats) {
		add("output.format %q is unknown", o.Format)
	}
	if !oneOf(o.Element, elementNames) {
		add("output.element %q is unknown", o.Element)
	}
	if o.Before < 0 || o.After < 0 {
		add("output.before and output.after must not be negative")
	}
	if o.Maximum < 0 {
		add("output.maximum must not be negative")
	}

	if c.Sources.Postgres.Enabled {
		s := c.Sources.Postgres
		if s.Table == "" || s.NameColumn == "" || s.BodyColumn == "" {
			add("sources.postgres needs table, nameColumn and bodyColumn")
		}
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topics.QueryEvents == "") {
		add("kafka needs brokers and topics.queryEvents when enabled")
	}
	if c.Server.RateLimit < 0 {
		add("server.rateLimit must not be negative")
	}
	if c.Analytics.Snapshots && c.Analytics.SnapshotInterval <= 0 {
		add("analytics.snapshotInterval must be positive when snapshots are enabled")
	}
	if c.Search.Timeout < 0 {
		add("search.timeout must not be negative")
	}
	if !oneOf(c.Logging.Level, logLevelNames) {
		add("logging.level %q is unknown", c.Logging.Level)
	}
	if !oneOf(c.Logging.Format, logFormatNames) {
		add("logging.format %q is unknown", c.Logging.Format)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// WildcardRune returns the configured wildcard character.
func (q QueryConfig) WildcardRune() rune {
	r, _ := utf8.DecodeRuneInString(q.Wildcard)
	return r
}

// Inclusive reports whether proximity windows use overlap semantics.
func (q QueryConfig) Inclusive() bool {
	return strings.EqualFold(q.ProximityMode, "inclusive")
}

// applyEnvOverrides reads WOSP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WOSP_QUERY_DEFAULT_OPERATOR"); v != "" {
		cfg.Query.DefaultOperator = v
	}
	if v := os.Getenv("WOSP_QUERY_CASE_MODE"); v != "" {
		cfg.Query.CaseMode = v
	}
	if v := os.Getenv("WOSP_QUERY_EDIT_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Query.EditBudget = n
		}
	}
	if v := os.Getenv("WOSP_QUERY_PROXIMITY_MODE"); v != "" {
		cfg.Query.ProximityMode = v
	}
	if v := os.Getenv("WOSP_INDEX_CASE_SENSITIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Index.CaseSensitive = b
		}
	}
	if v := os.Getenv("WOSP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WOSP_SERVER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("WOSP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("WOSP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("WOSP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("WOSP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("WOSP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("WOSP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("WOSP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WOSP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("WOSP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WOSP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
