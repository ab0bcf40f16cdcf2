package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable, e.g. CREDIT_SERVER_PORT
const EnvPrefix = "CREDIT"

// Chart dimension bounds. Query overrides on the chart routes obey the same limits.
const (
	MinChartWidth  = 200
	MaxChartWidth  = 4000
	MinChartHeight = 150
	MaxChartHeight = 3000
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"CHARTS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DatasetConfig locates and describes the quarterly source file
type DatasetConfig struct {
	Path         string `yaml:"path" envconfig:"FILE"`
	Format       string `yaml:"format" envconfig:"FORMAT"`
	Delimiter    string `yaml:"delimiter" envconfig:"DELIMITER"`
	Sheet        string `yaml:"sheet" envconfig:"SHEET"`
	PeriodColumn string `yaml:"period_column" envconfig:"PERIOD_COLUMN"`
}

// KPIConfig maps a metric onto a KPI callout.
// Metric may be the alias "headline_utilization".
type KPIConfig struct {
	ID        string `yaml:"id"`
	Label     string `yaml:"label"`
	Metric    string `yaml:"metric"`
	Format    string `yaml:"format"`
	Precision int    `yaml:"precision"`
	ShowDelta bool   `yaml:"show_delta"`
}

// DashboardConfig controls what the dashboard highlights
type DashboardConfig struct {
	Title               string      `yaml:"title" envconfig:"TITLE"`
	Source              string      `yaml:"source" envconfig:"SOURCE"`
	HeadlineUtilization string      `yaml:"headline_utilization" envconfig:"HEADLINE_UTILIZATION"`
	KPIs                []KPIConfig `yaml:"kpis" ignored:"true"`
}

// ChartsConfig contains default rendering dimensions
type ChartsConfig struct {
	Width  int `yaml:"width" envconfig:"WIDTH"`
	Height int `yaml:"height" envconfig:"HEIGHT"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled        bool    `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	ServiceVersion string  `yaml:"service_version" envconfig:"SERVICE_VERSION"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE"`
	TraceStdout    bool    `yaml:"trace_stdout" envconfig:"TRACE_STDOUT"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
}

// KPI display formats
const (
	FormatCurrencyBillions = "currency_billions"
	FormatPercent          = "percent"
	FormatNumber           = "number"
)

// HeadlineUtilizationAlias resolves to DashboardConfig.HeadlineUtilization
const HeadlineUtilizationAlias = "headline_utilization"

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the file.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset path must be set")
	}

	switch c.DatasetFormat() {
	case "csv", "xlsx":
	case "":
		// A directory of releases; the format comes from the file picked at load time
		if st, err := os.Stat(c.Dataset.Path); err != nil || !st.IsDir() {
			return fmt.Errorf("unsupported dataset format: %q", c.DatasetFormat())
		}
	default:
		return fmt.Errorf("unsupported dataset format: %q", c.DatasetFormat())
	}

	if len([]rune(c.Dataset.Delimiter)) != 1 {
		return fmt.Errorf("dataset delimiter must be a single character, got %q", c.Dataset.Delimiter)
	}

	if c.Dataset.PeriodColumn == "" {
		return fmt.Errorf("dataset period column must be set")
	}

	if !IsUtilizationMetric(domain.MetricID(c.Dashboard.HeadlineUtilization)) {
		return fmt.Errorf("headline utilization must be one of utilization_p50, utilization_p75, utilization_p90, got %q",
			c.Dashboard.HeadlineUtilization)
	}

	seen := make(map[string]bool, len(c.Dashboard.KPIs))
	for i, k := range c.Dashboard.KPIs {
		if k.ID == "" {
			return fmt.Errorf("kpi %d: id must be set", i)
		}
		if seen[k.ID] {
			return fmt.Errorf("kpi %q: duplicate id", k.ID)
		}
		seen[k.ID] = true

		if _, ok := domain.LookupMetric(c.ResolveMetric(k.Metric)); !ok {
			return fmt.Errorf("kpi %q: unknown metric %q", k.ID, k.Metric)
		}

		switch k.Format {
		case FormatCurrencyBillions, FormatPercent, FormatNumber:
		default:
			return fmt.Errorf("kpi %q: unknown format %q", k.ID, k.Format)
		}

		if k.Precision < 0 || k.Precision > 6 {
			return fmt.Errorf("kpi %q: precision must be between 0 and 6", k.ID)
		}
	}

	if c.Charts.Width < MinChartWidth || c.Charts.Width > MaxChartWidth {
		return fmt.Errorf("chart width must be between %d and %d, got %d", MinChartWidth, MaxChartWidth, c.Charts.Width)
	}
	if c.Charts.Height < MinChartHeight || c.Charts.Height > MaxChartHeight {
		return fmt.Errorf("chart height must be between %d and %d, got %d", MinChartHeight, MaxChartHeight, c.Charts.Height)
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry sample rate must be between 0 and 1")
	}

	return nil
}

// DatasetFormat returns the configured format, falling back to the file extension
func (c *Config) DatasetFormat() string {
	if c.Dataset.Format != "" {
		return strings.ToLower(c.Dataset.Format)
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(c.Dataset.Path)), ".")
}

// ResolveMetric maps a KPI metric reference onto a catalog metric ID
func (c *Config) ResolveMetric(ref string) domain.MetricID {
	if ref == HeadlineUtilizationAlias {
		return domain.MetricID(c.Dashboard.HeadlineUtilization)
	}
	return domain.MetricID(ref)
}

// IsUtilizationMetric reports whether id is one of the utilization percentiles
func IsUtilizationMetric(id domain.MetricID) bool {
	switch id {
	case domain.MetricUtilizationP50, domain.MetricUtilizationP75, domain.MetricUtilizationP90:
		return true
	}
	return false
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/dashboard.log",
		},
		Dataset: DatasetConfig{
			Path:         "data/24Q4-CreditCardBalances.csv",
			Delimiter:    ",",
			PeriodColumn: domain.DefaultPeriodColumn,
		},
		Dashboard: DashboardConfig{
			Title:               "US Credit Trends Dashboard",
			Source:              "Federal Reserve Bank of Philadelphia",
			HeadlineUtilization: string(domain.MetricUtilizationP90),
			KPIs:                DefaultKPIs(),
		},
		Charts: ChartsConfig{
			Width:  960,
			Height: 420,
		},
		Telemetry: TelemetryConfig{
			Enabled:        true,
			ServiceName:    "credit-trends-dashboard",
			ServiceVersion: "1.0.0",
			Environment:    "development",
			SampleRate:     1.0,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// DefaultKPIs returns the callouts shown by the original dashboard
func DefaultKPIs() []KPIConfig {
	return []KPIConfig{
		{
			ID:        "total_balances",
			Label:     "Total Balances (latest)",
			Metric:    string(domain.MetricTotalBalances),
			Format:    FormatCurrencyBillions,
			Precision: 0,
		},
		{
			ID:        "headline_utilization",
			Label:     "Utilization",
			Metric:    HeadlineUtilizationAlias,
			Format:    FormatPercent,
			Precision: 2,
			ShowDelta: true,
		},
		{
			ID:        "median_credit_score",
			Label:     "Median Credit Score",
			Metric:    string(domain.MetricCreditScoreP50),
			Format:    FormatNumber,
			Precision: 0,
		},
	}
}
