// Package scriptaccess собирает HTTP-приложение сервиса доступа к сценам.
package scriptaccess

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/script-access/internal/config"
	"github.com/magabrotheeeer/script-access/internal/http/handlers/access/check"
	"github.com/magabrotheeeer/script-access/internal/http/handlers/access/freeslot"
	"github.com/magabrotheeeer/script-access/internal/http/handlers/health"
	"github.com/magabrotheeeer/script-access/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/script-access/internal/http/handlers/progress/record"
	"github.com/magabrotheeeer/script-access/internal/http/handlers/progress/score"
	"github.com/magabrotheeeer/script-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/script-access/internal/lib/origin"
	"github.com/magabrotheeeer/script-access/internal/ratelimit"
)

// Ключи лимитов
const (
	LimitCheckAccess = "check-access"
	LimitFreeSlot    = "free-slot"
)

// Deps зависимости маршрутов.
type Deps struct {
	Logger         *slog.Logger
	Auth           *middlewarectx.Authenticator
	Guard          *origin.Guard
	Limiter        *ratelimit.Limiter
	Limits         config.RateLimit
	WebhookLimiter *rate.Limiter
	WebhookSecret  string
	TrustProxy     bool

	Access   AccessService
	Payments paymentwebhook.Service
	Progress ProgressService
	Health   map[string]health.Pinger
}

// AccessService проверка доступа и выдача бесплатного слота.
type AccessService interface {
	check.Service
	freeslot.Service
}

// ProgressService тренировки и оценка.
type ProgressService interface {
	score.Service
	record.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Logger

	// Глобальные middleware
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)

	checkLimit := middlewarectx.RateLimit(d.Limiter, middlewarectx.LimitRule{
		Name:   LimitCheckAccess,
		Window: d.Limits.CheckWindow,
		Max:    d.Limits.CheckMax,
		Key:    middlewarectx.ByUserOrIP(LimitCheckAccess),
	}, logger)
	grantLimit := middlewarectx.RateLimit(d.Limiter, middlewarectx.LimitRule{
		Name:   LimitFreeSlot,
		Window: d.Limits.GrantWindow,
		Max:    d.Limits.GrantMax,
		Key:    middlewarectx.ByUserOrIP(LimitFreeSlot),
	}, logger)
	originGuard := middlewarectx.OriginGuard(d.Guard, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/access", func(r chi.Router) {
			r.Use(originGuard)
			r.With(d.Auth.OptionalAuth, checkLimit).
				Post("/check", check.New(logger, d.Access).ServeHTTP)
			r.With(d.Auth.RequireAuth, grantLimit).
				Post("/free-slot", freeslot.New(logger, d.Access).ServeHTTP)
		})

		r.Route("/progress/{sceneId}", func(r chi.Router) {
			r.Use(d.Auth.RequireAuth)
			r.Get("/score", score.New(logger, d.Progress).ServeHTTP)
			r.With(originGuard).Post("/sessions", record.New(logger, d.Progress).ServeHTTP)
		})

		// Вызывается провайдером, защищён подписью
		r.With(middlewarectx.GlobalRateLimit(d.WebhookLimiter, logger)).
			Post("/payments/webhook", paymentwebhook.New(logger, d.Payments, d.WebhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger, d.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
