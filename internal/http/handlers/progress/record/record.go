// Package record сохраняет результат тренировки сцены.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/script-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/script-access/internal/http/response"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/models"
	"github.com/magabrotheeeer/script-access/internal/services/progress"
)

// Service сохраняет тренировку.
type Service interface {
	RecordSession(ctx context.Context, userUID, sceneID string, in models.DummySession) error
}

// Handler обработчик POST /progress/{sceneId}/sessions.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Сохранить тренировку
// @Description score_version 1 означает шкалу 0–3, 2 означает шкалу 0–10. Без версии шкала определяется по значению.
// @Tags Progress
// @Accept  json
// @Produce  json
// @Param sceneId path string true "Идентификатор сцены"
// @Param request body models.DummySession true "Оценка"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректная оценка"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Запрос не со страниц сервиса"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Security BearerAuth
// @Router /progress/{sceneId}/sessions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.record"
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

	var req models.DummySession
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	err := h.service.RecordSession(r.Context(), user.UUID, sceneID, req)
	if errors.Is(err, progress.ErrInvalidScore) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("score out of range"))
		return
	}
	if err != nil {
		log.Error("failed to record session", slog.String("scene_id", sceneID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.Response{Status: response.StatusOK})
}
