// Package entitlement определяет, есть ли у пользователя доступ к сцене,
// и выдаёт единственный бесплатный слот.
//
// Источники доступа проверяются строго по приоритету: администратор,
// активная подписка, покупка, бесплатный слот. Первый сработавший источник
// завершает проверку.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/metrics"
	"github.com/magabrotheeeer/script-access/internal/models"
)

// Store источники данных о доступе. "Не найдено" означает false/nil без ошибки,
// ошибка означает, что ответ неизвестен.
type Store interface {
	IsAdmin(ctx context.Context, userUID string) (bool, error)
	GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	FindGrant(ctx context.Context, userUID, sceneID, workID string, grantType models.GrantType) (bool, error)
	IsFreeSlotConsumed(ctx context.Context, userUID string) (bool, error)
}

// Query параметры проверки доступа. User == nil означает анонимный запрос.
type Query struct {
	User    *models.User
	SceneID string
	WorkID  string
}

// rule одна строка таблицы приоритетов.
type rule struct {
	name   string
	access models.AccessType
	match  func(ctx context.Context, q Query) (bool, error)
}

// Resolver проверяет доступ по таблице правил.
type Resolver struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
	rules []rule
}

// NewResolver создаёт Resolver.
func NewResolver(store Store, log *slog.Logger) *Resolver {
	r := &Resolver{store: store, log: log, now: time.Now}
	r.rules = []rule{
		{name: "anonymous", access: models.AccessNone, match: r.isAnonymous},
		{name: "admin", access: models.AccessAdmin, match: r.isAdmin},
		{name: "subscription", access: models.AccessSubscription, match: r.hasActiveSubscription},
		{name: "purchase", access: models.AccessPurchase, match: r.hasPurchase},
		{name: "free_slot", access: models.AccessFreeSlot, match: r.hasFreeSlotGrant},
	}
	return r
}

// Resolve возвращает решение о доступе к сцене. Правила проверяются
// последовательно; при ошибке любого из них проверка прерывается
// с ErrResolutionFailed.
func (r *Resolver) Resolve(ctx context.Context, q Query) (models.AccessDecision, error) {
	const op = "entitlement.Resolve"
	if q.SceneID == "" {
		return models.AccessDecision{}, fmt.Errorf("%s: %w: scene id is required", op, ErrInvalidInput)
	}

	for _, rl := range r.rules {
		ok, err := rl.match(ctx, q)
		if err != nil {
			metrics.ResolutionFailures.Inc()
			r.log.Error("access resolution failed",
				slog.String("op", op),
				slog.String("rule", rl.name),
				slog.String("scene_id", q.SceneID),
				sl.Err(err))
			return models.AccessDecision{}, fmt.Errorf("%s: %w: %s: %w", op, ErrResolutionFailed, rl.name, err)
		}
		if ok {
			d := models.AccessDecision{
				HasAccess:  rl.access != models.AccessNone,
				AccessType: rl.access,
			}
			metrics.AccessDecisions.WithLabelValues(string(d.AccessType)).Inc()
			return d, nil
		}
	}

	consumed, err := r.store.IsFreeSlotConsumed(ctx, q.User.UUID)
	if err != nil {
		metrics.ResolutionFailures.Inc()
		r.log.Error("access resolution failed",
			slog.String("op", op),
			slog.String("rule", "free_slot_available"),
			sl.Err(err))
		return models.AccessDecision{}, fmt.Errorf("%s: %w: free_slot_available: %w", op, ErrResolutionFailed, err)
	}
	metrics.AccessDecisions.WithLabelValues(string(models.AccessNone)).Inc()
	return models.AccessDecision{
		HasAccess:      false,
		AccessType:     models.AccessNone,
		CanUseFreeSlot: !consumed,
	}, nil
}

func (r *Resolver) isAnonymous(_ context.Context, q Query) (bool, error) {
	return q.User == nil || q.User.UUID == "", nil
}

func (r *Resolver) isAdmin(ctx context.Context, q Query) (bool, error) {
	return r.store.IsAdmin(ctx, q.User.UUID)
}

func (r *Resolver) hasActiveSubscription(ctx context.Context, q Query) (bool, error) {
	sub, err := r.store.GetSubscription(ctx, q.User.UUID)
	if err != nil {
		return false, err
	}
	return sub != nil && sub.ActiveAt(r.now()), nil
}

func (r *Resolver) hasPurchase(ctx context.Context, q Query) (bool, error) {
	return r.store.FindGrant(ctx, q.User.UUID, q.SceneID, q.WorkID, models.GrantPurchase)
}

// hasFreeSlotGrant ищет слот, привязанный именно к этой сцене. Слот
// на произведение не выдаётся, поэтому workID не учитывается.
func (r *Resolver) hasFreeSlotGrant(ctx context.Context, q Query) (bool, error) {
	return r.store.FindGrant(ctx, q.User.UUID, q.SceneID, "", models.GrantFreeSlot)
}
