package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/vitasicura/copilot"
	"github.com/spektr-org/vitasicura/dashboard"
	"github.com/spektr-org/vitasicura/dataset"
)

// DefaultPath is read when present and no --config flag is given.
const DefaultPath = "vitasicura.yaml"

// Config represents the complete dashboard configuration
type Config struct {
	Data       DataConfig           `yaml:"data"`
	Server     ServerConfig         `yaml:"server"`
	Copilot    CopilotConfig        `yaml:"copilot"`
	Thresholds dashboard.Thresholds `yaml:"thresholds"`
	Logging    LoggingConfig        `yaml:"logging"`
	Export     ExportConfig         `yaml:"export"`
}

// DataConfig locates the analytics CSVs
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig contains HTTP dashboard settings
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ChartWidth   int           `yaml:"chart_width"`
	ChartHeight  int           `yaml:"chart_height"`
	MaxSessions  int           `yaml:"max_sessions"` // copilot chats kept in memory
}

// CopilotConfig contains chat-completion settings and credential sources
type CopilotConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	SystemPrompt string        `yaml:"system_prompt"`
	SecretsFile  string        `yaml:"secrets_file"`
	DotEnvFile   string        `yaml:"dotenv_file"`
	KeyName      string        `yaml:"key_name"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	SeqURL string `yaml:"seq_url"`
}

// ExportConfig contains table export settings
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Thresholds: dashboard.DefaultThresholds()}
	cfg.Copilot.Temperature = copilot.DefaultTemperature
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills settings whose zero value is never meaningful. Numeric
// settings where 0 is valid (temperature, thresholds) come from Default and
// survive an explicit 0 in the file.
func (c *Config) applyDefaults() {
	if c.Data.Dir == "" {
		c.Data.Dir = dataset.DefaultDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		// must outlast a copilot call
		c.Server.WriteTimeout = copilot.DefaultTimeout + 15*time.Second
	}
	if c.Server.ChartWidth <= 0 {
		c.Server.ChartWidth = 960
	}
	if c.Server.ChartHeight <= 0 {
		c.Server.ChartHeight = 480
	}
	if c.Server.MaxSessions <= 0 {
		c.Server.MaxSessions = copilot.DefaultMaxSessions
	}

	if c.Copilot.Endpoint == "" {
		c.Copilot.Endpoint = copilot.DefaultEndpoint
	}
	if c.Copilot.Model == "" {
		c.Copilot.Model = copilot.DefaultModel
	}
	if c.Copilot.Timeout <= 0 {
		c.Copilot.Timeout = copilot.DefaultTimeout
	}
	if c.Copilot.SystemPrompt == "" {
		c.Copilot.SystemPrompt = copilot.DefaultSystemPrompt
	}
	if c.Copilot.SecretsFile == "" {
		c.Copilot.SecretsFile = ".secrets.yaml"
	}
	if c.Copilot.DotEnvFile == "" {
		c.Copilot.DotEnvFile = ".env"
	}
	if c.Copilot.KeyName == "" {
		c.Copilot.KeyName = copilot.KeyName
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
}

// Load loads configuration from a YAML file. An empty filename returns the
// defaults; DefaultPath is used when it exists.
func Load(filename string) (*Config, error) {
	if filename == "" {
		if _, err := os.Stat(DefaultPath); err != nil {
			return Default(), nil
		}
		filename = DefaultPath
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read config file %s", filename)
	}

	// decode over the defaults so keys absent from the file keep them
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "failed to parse config file %s", filename)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrapf(err, "invalid config file %s", filename)
	}
	return cfg, nil
}

// Validate rejects values that would make page computations meaningless.
func (c *Config) Validate() error {
	t := c.Thresholds
	if t.PriorityQuantile <= 0 || t.PriorityQuantile >= 1 {
		return eris.Errorf("thresholds.priority_quantile must be in (0,1), got %g", t.PriorityQuantile)
	}
	if t.Churn < 0 || t.Churn > 1 {
		return eris.Errorf("thresholds.churn must be in [0,1], got %g", t.Churn)
	}
	if t.HighPotential < 0 || t.HighPotential > 1 {
		return eris.Errorf("thresholds.high_potential must be in [0,1], got %g", t.HighPotential)
	}
	if c.Copilot.Temperature < 0 || c.Copilot.Temperature > 2 {
		return eris.Errorf("copilot.temperature must be in [0,2], got %g", c.Copilot.Temperature)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return eris.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// AdvisorConfig resolves the API key through the configured providers and
// returns the copilot settings.
func (c *Config) AdvisorConfig() copilot.Config {
	temperature := c.Copilot.Temperature
	return copilot.Config{
		APIKey:       copilot.ResolveKey(copilot.DefaultProviders(c.Copilot.SecretsFile, c.Copilot.DotEnvFile, c.Copilot.KeyName)...),
		Model:        c.Copilot.Model,
		Endpoint:     c.Copilot.Endpoint,
		SystemPrompt: c.Copilot.SystemPrompt,
		Temperature:  &temperature,
		Timeout:      c.Copilot.Timeout,
	}
}

// Print displays the configuration
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, "Data: %s\n", c.Data.Dir)
	fmt.Fprintf(w, "Server: %s (charts %dx%d)\n", c.Server.Addr, c.Server.ChartWidth, c.Server.ChartHeight)
	fmt.Fprintf(w, "Copilot: %s via %s (timeout %s)\n", c.Copilot.Model, c.Copilot.Endpoint, c.Copilot.Timeout)
	fmt.Fprintf(w, "Thresholds: priority q=%.2f, churn ≥ %.2f, high potential ≥ %.2f\n",
		c.Thresholds.PriorityQuantile, c.Thresholds.Churn, c.Thresholds.HighPotential)
	if c.Logging.SeqURL != "" {
		fmt.Fprintf(w, "Logging: %s (seq %s)\n", c.Logging.Level, c.Logging.SeqURL)
	} else {
		fmt.Fprintf(w, "Logging: %s\n", c.Logging.Level)
	}
}
