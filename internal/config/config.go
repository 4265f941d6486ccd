package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration of the API server.
// Every field is read from the environment (optionally seeded from a .env file).
type Config struct {
	Env      string `env:"APP_ENV" env-default:"local"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	HTTP     HTTP
	Database Database
	Redis    Redis
	Auth     Auth
	LLM      LLM
	Storage  Storage
	Kafka    Kafka
	Checkout Checkout
}

type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" env-default:":8080"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type Database struct {
	DSN             string        `env:"DB_DSN" env-default:"root:root@tcp(127.0.0.1:3306)/culinamarket?parseTime=true&multiStatements=true"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// Redis is optional. An empty Addr switches carts, checkout guards and the
// catalog cache to their in-process implementations.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	CartTTL  time.Duration `env:"CART_TTL" env-default:"720h"`
	CacheTTL time.Duration `env:"CATALOG_CACHE_TTL" env-default:"10m"`
}

type Auth struct {
	JWTSecret      string `env:"AUTH_JWT_SECRET" env-required:"true"`
	URL            string `env:"AUTH_URL"`
	ServiceRoleKey string `env:"AUTH_SERVICE_ROLE_KEY"`
}

// LLM selects the concierge's completion provider: "openai" for any
// OpenAI-compatible endpoint, "gemini", or "" to run without a model.
type LLM struct {
	Provider     string        `env:"LLM_PROVIDER" env-default:"openai"`
	APIKey       string        `env:"LLM_API_KEY"`
	BaseURL      string        `env:"LLM_BASE_URL" env-default:"https://openrouter.ai/api/v1"`
	Model        string        `env:"LLM_MODEL" env-default:"xiaomi/mimo-v2-flash:free"`
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
	Timeout      time.Duration `env:"LLM_TIMEOUT" env-default:"30s"`
}

type Storage struct {
	Bucket        string `env:"STORAGE_BUCKET" env-default:"product-images"`
	PublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `env:"KAFKA_ORDER_TOPIC" env-default:"culinamarket.orders"`
}

type Checkout struct {
	GuardTTL time.Duration `env:"CHECKOUT_GUARD_TTL" env-default:"30s"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load for main packages.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}
