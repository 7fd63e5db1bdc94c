// Package paymentwebhook принимает уведомления платёжного провайдера.
//
// Тело запроса подписывается провайдером HMAC-SHA256 общим секретом,
// подпись в base64 приходит в заголовке X-Api-Signature.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/script-access/internal/http/response"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/models"
	"github.com/magabrotheeeer/script-access/internal/services/payment"
)

// SignatureHeader заголовок с подписью тела
const SignatureHeader = "X-Api-Signature"

const maxBodyBytes = 1 << 20

// Service обрабатывает событие провайдера.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, event *models.PaymentEvent) error
}

// Handler обработчик POST /payments/webhook.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Sign считает подпись тела так же, как провайдер.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(h.webhookSecret, body)), []byte(signature))
}

// ServeHTTP godoc
// @Summary Уведомление платёжного провайдера
// @Description Успешный платёж с metadata user_uid и scene_id или work_id зачитывается как покупка. Повторное уведомление не создаёт вторую выдачу.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param X-Api-Signature header string true "HMAC-SHA256 тела в base64"
// @Param request body models.PaymentEvent true "Событие"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректное тело или metadata"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" || !h.verifySignature(body, signature) {
		log.Warn("invalid or missing webhook signature", slog.String("ip", sl.ClientIP(r)))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}

	if err := h.service.ProcessWebhookEvent(r.Context(), &event); err != nil {
		if errors.Is(err, payment.ErrInvalidMetadata) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid payment metadata"))
			return
		}
		log.Error("failed to process webhook event", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternal))
		return
	}

	log.Info("webhook processed", slog.String("event", event.Event), slog.String("payment_id", event.Object.ID))
	render.JSON(w, r, response.Response{Status: response.StatusOK})
}
