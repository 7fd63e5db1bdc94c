package entitlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/script-access/internal/models"
)

// Service объединяет проверку доступа и выдачу бесплатного слота
// для HTTP-обработчиков.
type Service struct {
	resolver *Resolver
	granter  *FreeSlotGranter
	log      *slog.Logger
}

// NewService создаёт Service.
func NewService(resolver *Resolver, granter *FreeSlotGranter, log *slog.Logger) *Service {
	return &Service{resolver: resolver, granter: granter, log: log}
}

// CheckAccess проверяет доступ пользователя (nil для анонима) к сцене.
func (s *Service) CheckAccess(ctx context.Context, user *models.User, sceneID, workID string) (models.AccessDecision, error) {
	return s.resolver.Resolve(ctx, Query{User: user, SceneID: sceneID, WorkID: workID})
}

// ClaimFreeSlot сначала проверяет доступ и только потом занимает слот.
// Если доступ к сцене уже есть из любого источника, слот не тратится
// и возвращается success=true.
func (s *Service) ClaimFreeSlot(ctx context.Context, user *models.User, sceneID string) (bool, error) {
	const op = "entitlement.ClaimFreeSlot"
	if user == nil || user.UUID == "" {
		return false, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	decision, err := s.resolver.Resolve(ctx, Query{User: user, SceneID: sceneID})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if decision.HasAccess {
		s.log.Info("free slot not needed, access already granted",
			slog.String("op", op),
			slog.String("scene_id", sceneID),
			slog.String("access_type", string(decision.AccessType)))
		return true, nil
	}

	return s.granter.Grant(ctx, user.UUID, sceneID)
}
