// Package config loads application configuration from file, environment,
// and built-in defaults, and initializes the global structured logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" mapstructure:"simulation"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// SimulationConfig holds the configured simulation knobs. The run and
// serve commands read only MaxConcurrency from it; frequency, horizon,
// iteration count and correlation settings come from their own flag and
// request defaults, not from these fields.
type SimulationConfig struct {
	Frequency         string `yaml:"frequency" mapstructure:"frequency"`
	HorizonMonths     int    `yaml:"horizon_months" mapstructure:"horizon_months"`
	NIterations       int    `yaml:"n_iterations" mapstructure:"n_iterations"`
	EnableCorrelation bool   `yaml:"enable_correlation" mapstructure:"enable_correlation"`
	CorrelationMethod string `yaml:"correlation_method" mapstructure:"correlation_method"`
	MaxConcurrency    int    `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// ServerConfig configures the HTTP simulation server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MonitoringConfig configures the background health checker and its
// webhook alerts.
type MonitoringConfig struct {
	Enabled             bool    `yaml:"enabled" mapstructure:"enabled"`
	CheckIntervalSecs   int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	WebhookURL          string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	MaxNumericErrorRate float64 `yaml:"max_numeric_error_rate" mapstructure:"max_numeric_error_rate"`
	MaxRepairRate       float64 `yaml:"max_repair_rate" mapstructure:"max_repair_rate"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COSTRISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("simulation.frequency", "weekly")
	v.SetDefault("simulation.horizon_months", 12)
	v.SetDefault("simulation.n_iterations", 10000)
	v.SetDefault("simulation.enable_correlation", true)
	v.SetDefault("simulation.correlation_method", "category")
	v.SetDefault("simulation.max_concurrency", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.max_numeric_error_rate", 0.01)
	v.SetDefault("monitoring.max_repair_rate", 0.25)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
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
