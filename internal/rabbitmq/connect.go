// Package rabbitmq публикует события выдачи доступа в обменник notifications,
// откуда их забирает внешний сервис уведомлений.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/script-access/internal/config"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
)

// Connect подключается к брокеру из cfg. Между попытками ждёт cfg.Delay,
// отмена ctx прерывает ожидание.
func Connect(ctx context.Context, log *slog.Logger, cfg config.RabbitMQ) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	attempts := max(cfg.Retries, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := amqp.Dial(cfg.URL)
		if err == nil {
			log.Info("rabbitmq connected", slog.String("op", op), slog.Int("attempt", attempt))
			return conn, nil
		}
		lastErr = err
		log.Warn("rabbitmq dial failed",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Int("of", attempts),
			sl.Err(err),
		)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(cfg.Delay):
		}
	}
	return nil, fmt.Errorf("%s: after %d attempts: %w", op, attempts, lastErr)
}
