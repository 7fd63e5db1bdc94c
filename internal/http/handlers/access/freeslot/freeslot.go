// Package freeslot реализует HTTP-обработчик использования бесплатного слота.
package freeslot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/script-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/script-access/internal/http/response"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/models"
	"github.com/magabrotheeeer/script-access/internal/services/entitlement"
)

// Service описывает выдачу бесплатного слота.
type Service interface {
	ClaimFreeSlot(ctx context.Context, user *models.User, sceneID string) (bool, error)
}

// Handler обработчик POST /access/free-slot.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Использовать бесплатный слот
// @Description Привязывает единственный бесплатный слот пользователя к сцене. Повторный вызов не ошибка и слот не меняет.
// @Tags Access
// @Accept  json
// @Produce  json
// @Param request body models.FreeSlotRequest true "Сцена"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 400 {object} response.ErrorResponse "Не указана сцена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Запрос не со страниц сервиса"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Security BearerAuth
// @Router /access/free-slot [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.freeslot"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user := middlewarectx.UserFromContext(r.Context())
	if user == nil {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	var req models.FreeSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	ok, err := h.service.ClaimFreeSlot(r.Context(), user, req.SceneID)
	switch {
	case errors.Is(err, entitlement.ErrUnauthenticated):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	case errors.Is(err, entitlement.ErrInvalidInput):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	case err != nil:
		log.Error("failed to claim free slot", slog.String("scene_id", req.SceneID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("free slot claimed", slog.String("scene_id", req.SceneID))
	render.JSON(w, r, response.StatusOKWithData(map[string]bool{
		"success": ok,
	}))
}
