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
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Normalizer NormalizerConfig `yaml:"normalizer" mapstructure:"normalizer"`
	Geocoder   GeocoderConfig   `yaml:"geocoder" mapstructure:"geocoder"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SourceConfig describes the cleaned source file and its column layout.
type SourceConfig struct {
	Path              string `yaml:"path" mapstructure:"path"`
	Sheet             string `yaml:"sheet" mapstructure:"sheet"`
	TitleColumn       string `yaml:"title_column" mapstructure:"title_column"`
	AddressColumn     string `yaml:"address_column" mapstructure:"address_column"`
	LabelDescriptions bool   `yaml:"label_descriptions" mapstructure:"label_descriptions"`
	Delimiter         string `yaml:"delimiter" mapstructure:"delimiter"`
}

// NormalizerConfig points at the cleanup ruleset. An empty rules_path uses
// the built-in Bucharest ruleset.
type NormalizerConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// GeocoderConfig configures the Nominatim provider.
type GeocoderConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CacheConfig configures the local lookup cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// OutputConfig configures the artifact.
type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`

	// KeepUnresolved keeps records whose lookup missed, with sentinel
	// coordinates (0, 0); the default omits them.
	KeepUnresolved bool `yaml:"keep_unresolved" mapstructure:"keep_unresolved"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MEDMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults: the current government list format.
	v.SetDefault("source.path", "input.xlsx")
	v.SetDefault("source.sheet", "Sheet1")
	v.SetDefault("source.title_column", "Nume medic de familie")
	v.SetDefault("source.address_column", "Adresa punct de lucru")
	v.SetDefault("source.label_descriptions", false)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "medmap-cli/1.0 (bucharest family medicine map)")
	v.SetDefault("geocoder.rate_per_sec", 1.0)
	v.SetDefault("geocoder.timeout_secs", 30)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", ".cache/geocode.db")
	v.SetDefault("output.path", "output.json")
	v.SetDefault("output.keep_unresolved", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
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
