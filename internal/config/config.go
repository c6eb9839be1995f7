package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:147.0) Gecko/20100101 Firefox/147.0"

// Client knob defaults. Retries counts retries, not attempts: 2 retries
// means up to 3 attempts per logical request.
const (
	DefaultClientTimeout = 12 * time.Second
	DefaultRetries       = 2
	DefaultBaseBackoff   = 250 * time.Millisecond
	DefaultMaxBackoff    = 3 * time.Second
)

type Config struct {
	SubkuDomain   string `mapstructure:"subku_domain"`
	UserAgent     string `mapstructure:"user_agent"`
	ClientTimeout string `mapstructure:"client_timeout"` // Go duration string like "12s"
	Retries       int    `mapstructure:"retries"`
	BaseBackoff   string `mapstructure:"base_backoff"` // Go duration string like "250ms"
	MaxBackoff    string `mapstructure:"max_backoff"`  // Go duration string like "3s"
	LogLevel      string `mapstructure:"log_level"`

	MetricsAddress string `mapstructure:"metrics_address"` // e.g. "localhost:9090"; empty disables the listener

	Cache struct {
		Provider      string `mapstructure:"provider"` // "memory" or "redis"; empty disables caching
		Size          int    `mapstructure:"size"`
		TTL           string `mapstructure:"ttl"` // Go duration string like "10m"
		RedisAddress  string `mapstructure:"redis_address"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
	} `mapstructure:"cache"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)
	globalConfig = config
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetDefault("retries", DefaultRetries)
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 128)
	viper.SetDefault("cache.ttl", "10m")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}

	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}

// Duration parses a duration string from config, falling back to def on
// empty or malformed input.
func Duration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn().Err(err).Str("duration", raw).Dur("default", def).Msg("Invalid duration, using default")
		return def
	}
	return d
}
