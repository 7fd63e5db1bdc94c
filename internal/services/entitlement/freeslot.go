package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/metrics"
	"github.com/magabrotheeeer/script-access/internal/models"
)

// SlotStore атомарная операция занятия бесплатного слота.
// Реализация обязана гарантировать не более одной выдачи free_slot на
// пользователя при любом числе параллельных вызовов.
type SlotStore interface {
	ConsumeFreeSlot(ctx context.Context, userUID, sceneID string) (models.FreeSlotResult, error)
}

// EventPublisher отправляет события во внешний сервис уведомлений.
type EventPublisher interface {
	PublishFreeSlotGranted(ctx context.Context, event models.FreeSlotGranted) error
}

// FreeSlotGranter выдаёт бесплатный слот ровно один раз.
type FreeSlotGranter struct {
	store     SlotStore
	publisher EventPublisher
	log       *slog.Logger
	now       func() time.Time
}

// NewFreeSlotGranter создаёт FreeSlotGranter. publisher может быть nil.
func NewFreeSlotGranter(store SlotStore, publisher EventPublisher, log *slog.Logger) *FreeSlotGranter {
	return &FreeSlotGranter{store: store, publisher: publisher, log: log, now: time.Now}
}

// Grant занимает бесплатный слот пользователя под сцену.
// Если слот уже занят (в том числе параллельным запросом), возвращается
// success=true без новой выдачи и без смены сцены.
func (g *FreeSlotGranter) Grant(ctx context.Context, userUID, sceneID string) (bool, error) {
	const op = "entitlement.Grant"
	if userUID == "" {
		return false, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}
	if sceneID == "" {
		return false, fmt.Errorf("%s: %w: scene id is required", op, ErrInvalidInput)
	}
	log := g.log.With(slog.String("op", op), slog.String("scene_id", sceneID))

	res, err := g.store.ConsumeFreeSlot(ctx, userUID, sceneID)
	if err != nil {
		metrics.FreeSlotGrants.WithLabelValues("error").Inc()
		log.Error("failed to consume free slot", sl.Err(err))
		return false, fmt.Errorf("%s: %w: %w", op, ErrGrantFailed, err)
	}

	if res.AlreadyConsumed {
		metrics.FreeSlotGrants.WithLabelValues("already_consumed").Inc()
		log.Info("free slot already consumed", slog.String("bound_scene_id", res.SceneID))
		return true, nil
	}

	metrics.FreeSlotGrants.WithLabelValues("granted").Inc()
	log.Info("free slot granted")
	g.publish(ctx, log, models.FreeSlotGranted{
		EventID:   uuid.New().String(),
		UserUID:   userUID,
		SceneID:   res.SceneID,
		GrantedAt: g.now().UTC(),
	})
	return true, nil
}

// publish отправляет событие. Выдача уже зафиксирована, поэтому ошибка
// публикации только логируется.
func (g *FreeSlotGranter) publish(ctx context.Context, log *slog.Logger, event models.FreeSlotGranted) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.PublishFreeSlotGranted(ctx, event); err != nil {
		log.Warn("failed to publish free slot event", slog.String("event_id", event.EventID), sl.Err(err))
	}
}
