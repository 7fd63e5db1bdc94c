// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RateLimit               `yaml:"rate_limit"`
	RabbitMQ                `yaml:"rabbitmq"`
	Payment                 `yaml:"payment"`
	Score                   `yaml:"score"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP  string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP  time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	PublicOrigin string        `yaml:"public_origin" env:"PUBLIC_ORIGIN" env-required:"true"`
	// TrustProxy брать адрес клиента из X-Forwarded-For/X-Real-IP.
	// Включать только за своим балансировщиком.
	TrustProxy bool `yaml:"trust_proxy" env-default:"false"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой AddressRedis означает, что redis не используется.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"2s"`
}

// JWTToken структура для проверки сессионного jwt-токена
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
	CookieName   string        `yaml:"cookie_name" env-default:"session"`
}

// RateLimit настройки ограничения частоты запросов.
// Backend: memory (в пределах процесса) или redis (общий для реплик).
type RateLimit struct {
	Backend     string        `yaml:"backend" env:"RATE_LIMIT_BACKEND" env-default:"memory"`
	CheckWindow time.Duration `yaml:"check_window" env-default:"1m"`
	CheckMax    int           `yaml:"check_max" env-default:"60"`
	GrantWindow time.Duration `yaml:"grant_window" env-default:"1m"`
	GrantMax    int           `yaml:"grant_max" env-default:"5"`
	Cleanup     time.Duration `yaml:"cleanup" env-default:"1m"`
}

// RabbitMQ настройки подключения к брокеру уведомлений.
// Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	URL     string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries int           `yaml:"retries" env-default:"5"`
	Delay   time.Duration `yaml:"delay" env-default:"2s"`
}

// Payment настройки приёма вебхуков платёжного провайдера
type Payment struct {
	WebhookSecret string  `yaml:"webhook_secret" env:"PAYMENT_WEBHOOK_SECRET" env-required:"true"`
	WebhookRPS    float64 `yaml:"webhook_rps" env-default:"20"`
	WebhookBurst  int     `yaml:"webhook_burst" env-default:"40"`
}

// Score настройки агрегации оценок тренировок
type Score struct {
	HalfLife time.Duration `yaml:"half_life" env-default:"336h"`
}

// MustLoad функция для загрузки конфига, путь к файлу берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг из файла и переменных окружения.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file: %s - does not exist", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if cfg.RateLimit.Backend != "memory" && cfg.RateLimit.Backend != "redis" {
		return nil, fmt.Errorf("%s: unknown rate limit backend %q", op, cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.Backend == "redis" && cfg.AddressRedis == "" {
		return nil, fmt.Errorf("%s: redis rate limit backend requires redis_connection.addressredis", op)
	}
	return &cfg, nil
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  PublicOrigin: %s\n"+
			"RateLimit:\n"+
			"  Backend: %s\n"+
			"  Check: %d per %s\n"+
			"  Grant: %d per %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.PublicOrigin,
		c.RateLimit.Backend,
		c.CheckMax, c.CheckWindow,
		c.GrantMax, c.GrantWindow,
	)
}
