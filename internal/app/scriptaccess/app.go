package scriptaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/script-access/internal/cache"
	"github.com/magabrotheeeer/script-access/internal/config"
	"github.com/magabrotheeeer/script-access/internal/http/handlers/health"
	"github.com/magabrotheeeer/script-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/script-access/internal/lib/jwt"
	"github.com/magabrotheeeer/script-access/internal/lib/origin"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/migrations"
	"github.com/magabrotheeeer/script-access/internal/rabbitmq"
	"github.com/magabrotheeeer/script-access/internal/ratelimit"
	"github.com/magabrotheeeer/script-access/internal/services/entitlement"
	"github.com/magabrotheeeer/script-access/internal/services/payment"
	"github.com/magabrotheeeer/script-access/internal/services/progress"
	"github.com/magabrotheeeer/script-access/internal/storage/repository"
)

// App HTTP-сервер со всеми зависимостями.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *rabbitmq.Publisher
	janitor   context.CancelFunc
}

// New поднимает хранилища, применяет миграции и собирает маршруты.
// Redis нужен только для общего лимитера, RabbitMQ только для уведомлений:
// без их адресов сервис работает на лимитере в памяти и без событий.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "scriptaccess.New"
	a := &App{logger: logger}

	guard, err := origin.New(cfg.PublicOrigin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.db, err = repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	version, err := migrations.Run(a.db.DB, cfg.MigrationsPath)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("schema is up to date", slog.Uint64("version", uint64(version)))
	if err = repository.CheckDatabaseReady(ctx, a.db); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	deps := map[string]health.Pinger{"postgres": a.db}

	var store ratelimit.Store
	switch cfg.RateLimit.Backend {
	case "redis":
		a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		deps["redis"] = a.cache
		store = ratelimit.NewRedisStore(a.cache.Client)
	default:
		mem := ratelimit.NewMemoryStore()
		janitorCtx, cancel := context.WithCancel(context.Background())
		mem.StartJanitor(janitorCtx, cfg.RateLimit.Cleanup)
		a.janitor = cancel
		store = mem
	}
	logger.Info("rate limiter configured", slog.String("backend", cfg.RateLimit.Backend))

	var publisher entitlement.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		a.amqpConn, err = rabbitmq.Connect(ctx, logger, cfg.RabbitMQ)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(a.amqpConn, rabbitmq.AccessQueues())
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.publisher = rabbitmq.NewPublisher(ch)
		publisher = a.publisher
	} else {
		logger.Warn("rabbitmq url is empty, free slot events are not published")
	}

	resolver := entitlement.NewResolver(a.db, logger)
	granter := entitlement.NewFreeSlotGranter(a.db, publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:         logger,
		Auth:           middlewarectx.NewAuthenticator(jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), cfg.CookieName, logger),
		Guard:          guard,
		Limiter:        ratelimit.New(store),
		Limits:         cfg.RateLimit,
		WebhookLimiter: rate.NewLimiter(rate.Limit(cfg.WebhookRPS), cfg.WebhookBurst),
		WebhookSecret:  cfg.WebhookSecret,
		TrustProxy:     cfg.TrustProxy,
		Access:         entitlement.NewService(resolver, granter, logger),
		Payments:       payment.New(a.db, logger),
		Progress:       progress.New(a.db, cfg.HalfLife, logger),
		Health:         deps,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeAll()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeAll()
		return err
	}
}

// closeAll освобождает всё, что успели открыть.
func (a *App) closeAll() {
	if a.janitor != nil {
		a.janitor()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close postgres", sl.Err(err))
		}
	}
}
