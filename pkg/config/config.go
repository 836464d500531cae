package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	BackendSheets   = "sheets"
	BackendWorkbook = "workbook"
)

// Config is read from an optional TOML file and PATIENTSHEETS_* environment
// variables; the environment wins.
type Config struct {
	ListenAddress   string        `mapstructure:"listen_address" toml:"listen_address"`
	Backend         string        `mapstructure:"backend" toml:"backend"`
	CredentialsFile string        `mapstructure:"credentials_file" toml:"credentials_file,omitempty"`
	DataDir         string        `mapstructure:"data_dir" toml:"data_dir"`
	Table           string        `mapstructure:"table" toml:"table"`
	CORSOrigins     []string      `mapstructure:"cors_origins" toml:"cors_origins"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" toml:"request_timeout"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps" toml:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst" toml:"rate_limit_burst"`
	LogFormat       string        `mapstructure:"log_format" toml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ListenAddress:  ":5000",
		Backend:        BackendSheets,
		DataDir:        "data",
		Table:          "PatientData",
		CORSOrigins:    []string{"http://localhost:3000"},
		RequestTimeout: 30 * time.Second,
		RateLimitRPS:   1,
		RateLimitBurst: 10,
		LogFormat:      "text",
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PATIENTSHEETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("listen_address", d.ListenAddress)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("credentials_file", "")
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("table", d.Table)
	v.SetDefault("cors_origins", d.CORSOrigins)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("rate_limit_rps", d.RateLimitRPS)
	v.SetDefault("rate_limit_burst", d.RateLimitBurst)
	v.SetDefault("log_format", d.LogFormat)
	return v
}

// Load reads filename when it is non-empty and exists, then applies the
// environment. The service account path also falls back to
// GOOGLE_APPLICATION_CREDENTIALS.
func Load(filename string) (*Config, error) {
	v := newViper()
	if filename != "" {
		v.SetConfigFile(filename)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", filename, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSheets, BackendWorkbook:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendSheets, BackendWorkbook, c.Backend)
	}
	if c.Table == "" {
		return errors.New("table must not be empty")
	}
	if c.Backend == BackendWorkbook && c.DataDir == "" {
		return errors.New("data_dir is required for the workbook backend")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("rate limits must not be negative")
	}
	return nil
}

// Save writes c to filename as TOML.
func (c *Config) Save(filename string) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
