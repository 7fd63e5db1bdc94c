package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/script-access/internal/http/response"
	"github.com/magabrotheeeer/script-access/internal/lib/origin"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/metrics"
)

// OriginGuard пропускает только запросы, пришедшие со страниц сервиса.
// Отказ: 403 без подробностей, причина пишется в лог и метрику.
func OriginGuard(guard *origin.Guard, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.OriginGuard"
			v := guard.Check(r.Header.Get("Origin"), r.Header.Get("Referer"))
			if !v.Allowed {
				metrics.PerimeterRejections.WithLabelValues("origin", v.Reason).Inc()
				log.Warn("request rejected by origin guard",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("reason", v.Reason),
					slog.String("origin", r.Header.Get("Origin")),
					slog.String("referer", r.Header.Get("Referer")),
					slog.String("ip", sl.ClientIP(r)))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(response.MsgForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
