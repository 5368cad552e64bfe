package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Judge fallback policies
const (
	FallbackRandom = "random"
	FallbackReject = "reject"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Judge     JudgeConfig     `yaml:"judge"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Jobs      JobsConfig      `yaml:"jobs"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env          string          `yaml:"env"`
	JWTSecret    string          `yaml:"jwt_secret"`
	SignupBonus  decimal.Decimal `yaml:"signup_bonus"`
	AppealWindow time.Duration   `yaml:"appeal_window"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres or sqlite
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	DBName     string `yaml:"name"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// JudgeConfig holds the AI arbitrator settings
type JudgeConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	Timeout       time.Duration `yaml:"timeout"`
	Fallback      string        `yaml:"fallback"`
	RatePerSecond float64       `yaml:"rate_per_second"`
}

// RedisConfig holds the balance cache settings. An empty Addr disables it.
type RedisConfig struct {
	Addr string        `yaml:"addr"`
	TTL  time.Duration `yaml:"ttl"`
}

// KafkaConfig holds the event publisher settings. No brokers means events
// are only logged.
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	TopicPrefix string   `yaml:"topic_prefix"`
}

// JobsConfig holds background job intervals
type JobsConfig struct {
	ArbitrationInterval time.Duration `yaml:"arbitration_interval"`
}

// RateLimitConfig holds per-identity request limits
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Defaults returns the configuration used when neither a config file nor
// the environment sets a value.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Env:          "development",
			SignupBonus:  decimal.NewFromInt(100),
			AppealWindow: 7 * 24 * time.Hour,
		},
		Database: DatabaseConfig{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "postgres",
			DBName:     "prophet",
			SQLitePath: "prophet.db",
		},
		Server: ServerConfig{
			Port: "8080",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Judge: JudgeConfig{
			BaseURL:       "https://api.openai.com/v1",
			Model:         "gpt-4o-mini",
			Timeout:       20 * time.Second,
			RatePerSecond: 1,
		},
		Redis: RedisConfig{
			TTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			TopicPrefix: "prophet",
		},
		Jobs: JobsConfig{
			ArbitrationInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 100,
		},
	}
}

// Load loads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if config.Judge.Fallback == "" {
		config.Judge.Fallback = FallbackRandom
		if config.IsProduction() {
			config.Judge.Fallback = FallbackReject
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	c.App.Env = getEnv("APP_ENV", c.App.Env)
	c.App.JWTSecret = getEnv("JWT_SECRET", c.App.JWTSecret)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)

	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, frontendURL)
	}

	c.Judge.BaseURL = getEnv("JUDGE_BASE_URL", c.Judge.BaseURL)
	c.Judge.APIKey = getEnv("OPENAI_API_KEY", c.Judge.APIKey)
	c.Judge.Model = getEnv("JUDGE_MODEL", c.Judge.Model)
	c.Judge.Fallback = getEnv("JUDGE_FALLBACK", c.Judge.Fallback)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Kafka.TopicPrefix = getEnv("KAFKA_TOPIC_PREFIX", c.Kafka.TopicPrefix)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}

	var err error
	if c.App.AppealWindow, err = getDuration("APPEAL_WINDOW", c.App.AppealWindow); err != nil {
		return err
	}
	if c.Judge.Timeout, err = getDuration("JUDGE_TIMEOUT", c.Judge.Timeout); err != nil {
		return err
	}
	if c.Redis.TTL, err = getDuration("REDIS_TTL", c.Redis.TTL); err != nil {
		return err
	}
	if c.Jobs.ArbitrationInterval, err = getDuration("ARBITRATION_INTERVAL", c.Jobs.ArbitrationInterval); err != nil {
		return err
	}

	if v := os.Getenv("SIGNUP_BONUS"); v != "" {
		bonus, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid SIGNUP_BONUS %q: %w", v, err)
		}
		c.App.SignupBonus = bonus
	}
	if v := os.Getenv("JUDGE_RATE_PER_SECOND"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid JUDGE_RATE_PER_SECOND %q: %w", v, err)
		}
		c.Judge.RatePerSecond = rate
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %q: %w", v, err)
		}
		c.RateLimit.RequestsPerMinute = n
	}
	return nil
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	if c.App.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Judge.Fallback {
	case FallbackRandom, FallbackReject:
	default:
		return fmt.Errorf("unsupported JUDGE_FALLBACK %q", c.Judge.Fallback)
	}
	if c.Judge.Timeout <= 0 {
		return fmt.Errorf("JUDGE_TIMEOUT must be positive")
	}
	if c.App.SignupBonus.IsNegative() {
		return fmt.Errorf("SIGNUP_BONUS must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production" || c.App.Env == "prod"
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
