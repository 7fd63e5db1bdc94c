// Package cache поднимает подключение к redis, общему для всех реплик сервиса.
// Сейчас в нём живут только счётчики лимитера запросов.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/script-access/internal/config"
)

// ClientName имя соединения в CLIENT LIST.
const ClientName = "script-access"

// Cache держит клиент redis.
type Cache struct {
	Client *redis.Client
}

// InitServer подключается к redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	client := redis.NewClient(options(cfg))

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %s: %w", op, cfg.AddressRedis, err)
	}
	return &Cache{Client: client}, nil
}

func options(cfg config.RedisConnection) *redis.Options {
	return &redis.Options{
		Addr:         cfg.AddressRedis,
		Username:     cfg.User,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   ClientName,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	}
}

// Ping используется проверкой /health.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache.Ping: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.Client.Close()
}
