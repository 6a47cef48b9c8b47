package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	License  LicenseConfig  `yaml:"license"`
	Analyze  AnalyzeConfig  `yaml:"analyze"`
	Share    ShareConfig    `yaml:"share"`
	Prompts  PromptsConfig  `yaml:"prompts"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

type LicenseConfig struct {
	FreeCredits int `yaml:"free_credits"`
	PassDays    int `yaml:"pass_days"`
}

type AnalyzeConfig struct {
	DailyLimit   int  `yaml:"daily_limit"`
	LimitEnabled bool `yaml:"limit_enabled"`
}

type ShareConfig struct {
	DailyLimit   int           `yaml:"daily_limit"`
	RewardAmount int           `yaml:"reward_amount"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	BaseURL      string        `yaml:"base_url"`
	StoreURL     string        `yaml:"store_url"`
}

type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Log: LogConfig{Level: "debug"},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		Postgres: PostgresConfig{
			DSN: "",
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o",
			BaseURL:     "https://api.openai.com/v1",
			Timeout:     30 * time.Second,
			Temperature: 0.5,
			MaxTokens:   300,
		},
		License: LicenseConfig{
			FreeCredits: 2,
			PassDays:    7,
		},
		Analyze: AnalyzeConfig{
			DailyLimit:   3,
			LimitEnabled: true,
		},
		Share: ShareConfig{
			DailyLimit:   2,
			RewardAmount: 1,
			TokenTTL:     24 * time.Hour,
			BaseURL:      "https://gnom.ai/share",
			StoreURL:     "https://gnom.ai/app",
		},
		Prompts: PromptsConfig{
			Dir: "prompts",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if err := overrideDuration("OPENAI_TIMEOUT", &cfg.OpenAI.Timeout); err != nil {
		return err
	}

	if err := overrideInt("LICENSE_FREE_CREDITS", &cfg.License.FreeCredits); err != nil {
		return err
	}
	if err := overrideInt("IAP_PASS_DAYS", &cfg.License.PassDays); err != nil {
		return err
	}

	if err := overrideInt("ANALYZE_DAILY_LIMIT", &cfg.Analyze.DailyLimit); err != nil {
		return err
	}
	if err := overrideBool("ANALYZE_LIMIT_ENABLED", &cfg.Analyze.LimitEnabled); err != nil {
		return err
	}

	if err := overrideInt("SHARE_DAILY_LIMIT", &cfg.Share.DailyLimit); err != nil {
		return err
	}
	if err := overrideInt("SHARE_REWARD_AMOUNT", &cfg.Share.RewardAmount); err != nil {
		return err
	}
	if err := overrideDuration("SHARE_TTL", &cfg.Share.TokenTTL); err != nil {
		return err
	}
	if v := os.Getenv("SHARE_BASE_URL"); v != "" {
		cfg.Share.BaseURL = v
	}
	if v := os.Getenv("SHARE_STORE_URL"); v != "" {
		cfg.Share.StoreURL = v
	}

	if v := os.Getenv("PROMPTS_DIR"); v != "" {
		cfg.Prompts.Dir = v
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}
