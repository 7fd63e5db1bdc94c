// Package score отдаёт итоговую оценку пользователя по сцене.
package score

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/script-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/script-access/internal/http/response"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/services/progress"
)

// Service считает оценку.
type Service interface {
	Score(ctx context.Context, userUID, sceneID string) (progress.SceneScore, error)
}

// Handler обработчик GET /progress/{sceneId}/score.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Оценка по сцене
// @Description Среднее по тренировкам пользователя, свежие тренировки весят больше. Шкала 0–10.
// @Tags Progress
// @Produce  json
// @Param sceneId path string true "Идентификатор сцены"
// @Success 200 {object} response.Response{data=progress.SceneScore}
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Security BearerAuth
// @Router /progress/{sceneId}/score [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.score"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user := middlewarectx.UserFromContext(r.Context())
	if user == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}
	sceneID := chi.URLParam(r, "sceneId")

	res, err := h.service.Score(r.Context(), user.UUID, sceneID)
	if err != nil {
		log.Error("failed to compute score", slog.String("scene_id", sceneID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
