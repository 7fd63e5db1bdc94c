package middlewarectx

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/script-access/internal/http/response"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/metrics"
	"github.com/magabrotheeeer/script-access/internal/ratelimit"
)

// KeyFunc строит ключ лимита по запросу.
type KeyFunc func(r *http.Request) string

// ByUserOrIP ключ prefix:<uuid> для вошедшего пользователя, иначе prefix:<ip>.
func ByUserOrIP(prefix string) KeyFunc {
	return func(r *http.Request) string {
		if u := UserFromContext(r.Context()); u != nil {
			return prefix + ":" + u.UUID
		}
		return prefix + ":" + sl.ClientIP(r)
	}
}

// LimitRule параметры окна для одного маршрута.
type LimitRule struct {
	Name   string
	Window time.Duration
	Max    int
	Key    KeyFunc
}

// RateLimit ограничивает частоту запросов фиксированным окном.
// При превышении отвечает 429 с Retry-After в целых секундах.
// Если хранилище счётчиков недоступно, запрос пропускается.
func RateLimit(limiter *ratelimit.Limiter, rule LimitRule, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RateLimit"
			key := rule.Key(r)
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("limit", rule.Name),
			)

			d, err := limiter.Check(r.Context(), key, rule.Window, rule.Max)
			if err != nil {
				metrics.PerimeterRejections.WithLabelValues("ratelimit", "store_error").Inc()
				log.Error("rate limit check failed, request allowed", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				metrics.PerimeterRejections.WithLabelValues("ratelimit", rule.Name).Inc()
				log.Warn("rate limit exceeded", slog.String("key", key), slog.Int64("count", d.Count))
				w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(d.RetryAfter)))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error(response.MsgTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RetryAfterSeconds округляет ожидание вверх до целых секунд, минимум 1.
func RetryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// GlobalRateLimit общий token bucket на маршрут, для вызовов от внешних систем.
func GlobalRateLimit(limiter *rate.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				metrics.PerimeterRejections.WithLabelValues("global", "exceeded").Inc()
				log.Warn("too many requests",
					slog.String("op", "middlewarectx.GlobalRateLimit"),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				w.Header().Set("Retry-After", "1")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error(response.MsgTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
