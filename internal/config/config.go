package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Environment string `env:"ENV" env-default:"development"`
	LogLevel    string `env:"LOG_LEVEL"`
	HTTPPort    string `env:"HTTP_PORT" env-default:"8080"`
	Timezone    string `env:"TIMEZONE" env-default:"UTC"`

	StoreDriver   string `env:"STORE_DRIVER" env-default:"postgres"`
	DBDSN         string `env:"DB_DSN"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" env-default:"10"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" env-default:"true"`

	JWTSecret  string        `env:"JWT_SECRET" env-required:"true"`
	SessionTTL time.Duration `env:"SESSION_TTL" env-default:"24h"`

	TelegramToken string `env:"TELEGRAM_TOKEN"`

	RedisURL                 string        `env:"REDIS_URL"`
	CacheSize                int           `env:"CACHE_SIZE" env-default:"256"`
	DirectoryCacheTTL        time.Duration `env:"DIRECTORY_CACHE_TTL" env-default:"5m"`
	DirectoryRefreshInterval time.Duration `env:"DIRECTORY_REFRESH_INTERVAL" env-default:"1m"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"appointments"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" env-default:"Administrator"`
}

// Load читает .env (если есть), затем переменные окружения
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		help, _ := cleanenv.GetDescription(cfg, nil)
		log.Printf("Config help:\n%s", help)
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Location зона, в которой трактуются даты встреч
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
