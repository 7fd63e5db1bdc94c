// Package payment зачитывает успешные платежи как покупки сцен и произведений.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/metrics"
	"github.com/magabrotheeeer/script-access/internal/models"
)

// ErrInvalidMetadata в успешном платеже нет пользователя или предмета покупки.
var ErrInvalidMetadata = errors.New("invalid payment metadata")

// GrantRepository сохраняет выдачи доступа.
type GrantRepository interface {
	CreateGrant(ctx context.Context, grant models.Grant) (string, bool, error)
}

// Service обрабатывает уведомления провайдера.
type Service struct {
	repo GrantRepository
	log  *slog.Logger
}

// New создаёт Service.
func New(repo GrantRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ProcessWebhookEvent создаёт выдачу типа purchase для успешного платежа.
// Провайдер повторяет уведомления, поэтому повтор уже зачтённой покупки
// не ошибка. Остальные события подтверждаются без действий.
func (s *Service) ProcessWebhookEvent(ctx context.Context, event *models.PaymentEvent) error {
	const op = "payment.ProcessWebhookEvent"
	log := s.log.With(
		slog.String("op", op),
		slog.String("event", event.Event),
		slog.String("payment_id", event.Object.ID),
	)

	if strings.ToLower(event.Event) != models.PaymentSucceeded {
		metrics.PurchaseGrants.WithLabelValues("ignored").Inc()
		log.Info("payment event ignored")
		return nil
	}

	grant, err := grantFromMetadata(event.Object.Metadata)
	if err != nil {
		metrics.PurchaseGrants.WithLabelValues("invalid").Inc()
		log.Warn("payment metadata rejected", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	id, created, err := s.repo.CreateGrant(ctx, grant)
	if err != nil {
		metrics.PurchaseGrants.WithLabelValues("error").Inc()
		log.Error("failed to create purchase grant", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		metrics.PurchaseGrants.WithLabelValues("duplicate").Inc()
		log.Info("purchase already recorded", slog.String("grant_id", id))
		return nil
	}

	metrics.PurchaseGrants.WithLabelValues("created").Inc()
	log.Info("purchase grant created",
		slog.String("grant_id", id),
		slog.String("scene_id", grant.SceneID),
		slog.String("work_id", grant.WorkID))
	return nil
}

// grantFromMetadata собирает выдачу из metadata платежа. Покупка
// произведения целиком имеет приоритет над сценой.
func grantFromMetadata(md map[string]string) (models.Grant, error) {
	userUID := md[models.MetadataUserUID]
	if _, err := uuid.Parse(userUID); err != nil {
		return models.Grant{}, fmt.Errorf("%w: user_uid %q", ErrInvalidMetadata, userUID)
	}

	grant := models.Grant{UserUID: userUID, Type: models.GrantPurchase}
	switch {
	case md[models.MetadataWorkID] != "":
		grant.WorkID = md[models.MetadataWorkID]
	case md[models.MetadataSceneID] != "":
		grant.SceneID = md[models.MetadataSceneID]
	default:
		return models.Grant{}, fmt.Errorf("%w: scene_id or work_id is required", ErrInvalidMetadata)
	}
	return grant, nil
}
