package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string
	TokenTTL  time.Duration

	// Quiz
	QuizSize       int
	QuizSessionTTL time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "5000"),
		Env:            getEnvOrDefault("ENV", "development"),
		DatabaseURL:    mustGetEnv("DATABASE_URL"),
		MigrationsDir:  os.Getenv("MIGRATIONS_DIR"),
		RedisURL:       mustGetEnv("REDIS_URL"),
		JWTSecret:      mustGetEnv("JWT_SECRET"),
		TokenTTL:       getEnvAsDurationOrDefault("TOKEN_TTL", 7*24*time.Hour),
		QuizSize:       getEnvAsIntOrDefault("QUIZ_SIZE", 10),
		QuizSessionTTL: getEnvAsDurationOrDefault("QUIZ_SESSION_TTL", 24*time.Hour),
	}

	return cfg
}

// LoadDatabase reads only the settings needed by tools that touch the
// database directly.
func LoadDatabase() *Config {
	godotenv.Load()

	return &Config{
		Env:           getEnvOrDefault("ENV", "development"),
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		MigrationsDir: os.Getenv("MIGRATIONS_DIR"),
	}
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// BotConfig configures cmd/bot. The bot only talks to the server through
// the public REST API. QuizSize reads the server's QUIZ_SIZE so both quizzes
// have the same length.
type BotConfig struct {
	Token      string        `yaml:"token"`
	APIBaseURL string        `yaml:"api_base_url"`
	APITimeout time.Duration `yaml:"api_timeout"`
	PollEvery  time.Duration `yaml:"poll_timeout"`
	Debug      bool          `yaml:"debug"`
	QuizSize   int           `yaml:"quiz_size"`
}

// LoadBot reads the optional YAML file at path (skipped when path is empty)
// and then applies environment overrides.
func LoadBot(path string) (*BotConfig, error) {
	godotenv.Load()

	cfg := &BotConfig{
		APIBaseURL: "http://127.0.0.1:5000",
		APITimeout: 5 * time.Second,
		PollEvery:  10 * time.Second,
		QuizSize:   10,
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bot config: %w", err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode bot config: %w", err)
		}
	}

	cfg.Token = getEnvOrDefault("TG_BOT_TOKEN", cfg.Token)
	cfg.APIBaseURL = getEnvOrDefault("API_BASE_URL", cfg.APIBaseURL)
	cfg.APITimeout = getEnvAsDurationOrDefault("API_TIMEOUT", cfg.APITimeout)
	cfg.PollEvery = getEnvAsDurationOrDefault("BOT_POLL_TIMEOUT", cfg.PollEvery)
	cfg.QuizSize = getEnvAsIntOrDefault("QUIZ_SIZE", cfg.QuizSize)
	if v := os.Getenv("BOT_DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is not set (TG_BOT_TOKEN or token in %q)", path)
	}
	return cfg, nil
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
