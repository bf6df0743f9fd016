package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения, например PAYFORM_BACKEND_URL
const EnvPrefix = "PAYFORM"

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Port            string        `mapstructure:"port"`
		Env             string        `mapstructure:"env"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	} `mapstructure:"app"`
	Backend struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"backend"`
	Status struct {
		PollInterval   time.Duration `mapstructure:"pollInterval"`
		RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	} `mapstructure:"status"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers     []string `mapstructure:"brokers"`
		TopicPrefix string   `mapstructure:"topicPrefix"`
	} `mapstructure:"kafka"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// IsProduction true, если приложение запущено в production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.shutdownTimeout", 10*time.Second)

	v.SetDefault("backend.url", "http://localhost:2050")
	v.SetDefault("backend.timeout", 10*time.Second)

	v.SetDefault("status.pollInterval", time.Second)
	v.SetDefault("status.requestTimeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topicPrefix", "")

	v.SetDefault("log.level", "INFO")
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем config.yml
// из configDir (если есть), затем переменные окружения.
// Файл envPath читается только вне production и может отсутствовать.
func LoadConfig(envPath, configDir string) (*Config, error) {
	if !isProductionEnv() && envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to load %s: %w", envPath, err)
		}
	}

	if configDir == "" {
		configDir = "."
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // Чтение переменных окружения
	_ = v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("config: failed to decode: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return errors.New("config: backend.url is required")
	}
	if c.App.Port == "" {
		return errors.New("config: app.port is required")
	}
	if c.Status.PollInterval <= 0 {
		return fmt.Errorf("config: status.pollInterval must be positive, got %s", c.Status.PollInterval)
	}
	return nil
}

func isProductionEnv() bool {
	if env := os.Getenv(EnvPrefix + "_APP_ENV"); env != "" {
		return env == "production"
	}
	return os.Getenv("APP_ENV") == "production"
}
