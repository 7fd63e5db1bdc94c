// Package check реализует HTTP-обработчик проверки доступа к сцене.
//
// Анонимный запрос не ошибка: он получает has_access=false.
package check

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/script-access/internal/http/middlewarectx"
	"github.com/magabrotheeeer/script-access/internal/http/response"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/models"
)

// Service описывает проверку доступа.
type Service interface {
	CheckAccess(ctx context.Context, user *models.User, sceneID, workID string) (models.AccessDecision, error)
}

// Handler обработчик POST /access/check.
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
// @Summary Проверить доступ к сцене
// @Description Возвращает, есть ли у текущего пользователя доступ к сцене, его источник и можно ли занять бесплатный слот.
// @Tags Access
// @Accept  json
// @Produce  json
// @Param request body models.AccessRequest true "Сцена и произведение"
// @Success 200 {object} response.Response{data=models.AccessDecision}
// @Failure 400 {object} response.ErrorResponse "Не указана сцена"
// @Failure 403 {object} response.ErrorResponse "Запрос не со страниц сервиса"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Доступ не удалось определить"
// @Router /access/check [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.check"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.AccessRequest
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

	user := middlewarectx.UserFromContext(r.Context())
	decision, err := h.service.CheckAccess(r.Context(), user, req.SceneID, req.WorkID)
	if err != nil {
		log.Error("failed to check access", slog.String("scene_id", req.SceneID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("access checked",
		slog.String("scene_id", req.SceneID),
		slog.String("access_type", string(decision.AccessType)),
		slog.Bool("can_use_free_slot", decision.CanUseFreeSlot))
	render.JSON(w, r, response.StatusOKWithData(decision))
}
