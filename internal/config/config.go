package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shpitdev/transaction-enricher/pkg/pipeline/worker"
)

// Config holds the full application configuration.
type Config struct {
	Input        string    `yaml:"input" mapstructure:"input"`
	Output       string    `yaml:"output" mapstructure:"output"`
	Token        string    `yaml:"token" mapstructure:"token"`
	URL          string    `yaml:"url" mapstructure:"url"`
	Workers      int       `yaml:"workers" mapstructure:"workers"`
	RateLimitRPS float64   `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	Log          LogConfig `yaml:"log" mapstructure:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"input":          "input",
	"output":         "output",
	"token":          "token",
	"url":            "url",
	"workers":        "workers",
	"rate-limit-rps": "rate_limit_rps",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// Load reads configuration from defaults, an optional config file, the
// environment (ENRICHER_ prefix) and flags, in increasing precedence.
//
// The config file is the value of the "config" flag when set, otherwise
// enricher.yaml in the working directory if it exists. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("ENRICHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("token", "")
	v.SetDefault("url", "")
	v.SetDefault("workers", worker.DefaultWorkers)
	v.SetDefault("rate_limit_rps", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	explicit := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, eris.Wrapf(err, "config: bind flag %s", name)
			}
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("enricher")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || explicit != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.Input = strings.TrimSpace(cfg.Input)
	cfg.Output = strings.TrimSpace(cfg.Output)
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.URL = strings.TrimSpace(cfg.URL)

	return &cfg, nil
}

// Validate checks the settings a run needs.
func (c *Config) Validate() error {
	var missing []string
	if c.Input == "" {
		missing = append(missing, "input")
	}
	if c.Output == "" {
		missing = append(missing, "output")
	}
	if c.Token == "" {
		missing = append(missing, "token")
	}
	if c.URL == "" {
		missing = append(missing, "url")
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required setting(s): %s", strings.Join(missing, ", "))
	}
	if c.Workers <= 0 {
		return eris.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.RateLimitRPS < 0 {
		return eris.Errorf("config: rate_limit_rps must be >= 0, got %v", c.RateLimitRPS)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
