package entitlement

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/script-access/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// StoreMock реализует Store
type StoreMock struct{ mock.Mock }

func (m *StoreMock) IsAdmin(ctx context.Context, userUID string) (bool, error) {
	args := m.Called(ctx, userUID)
	return args.Bool(0), args.Error(1)
}

func (m *StoreMock) GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *StoreMock) FindGrant(ctx context.Context, userUID, sceneID, workID string, grantType models.GrantType) (bool, error) {
	args := m.Called(ctx, userUID, sceneID, workID, grantType)
	return args.Bool(0), args.Error(1)
}

func (m *StoreMock) IsFreeSlotConsumed(ctx context.Context, userUID string) (bool, error) {
	args := m.Called(ctx, userUID)
	return args.Bool(0), args.Error(1)
}

// PublisherMock реализует EventPublisher
type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishFreeSlotGranted(ctx context.Context, event models.FreeSlotGranted) error {
	return m.Called(ctx, event).Error(0)
}

// memoryStore потокобезопасная реализация Store и SlotStore в памяти.
// Проверка и запись слота идут под одним мьютексом, как строка в БД под
// уникальным ключом.
type memoryStore struct {
	mu        sync.Mutex
	admins    map[string]bool
	subs      map[string]*models.Subscription
	purchases map[string]bool // user|scene или user|work:<id>
	slots     map[string]string
	grants    []models.Grant
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		admins:    map[string]bool{},
		subs:      map[string]*models.Subscription{},
		purchases: map[string]bool{},
		slots:     map[string]string{},
	}
}

func (s *memoryStore) IsAdmin(_ context.Context, userUID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admins[userUID], nil
}

func (s *memoryStore) GetSubscription(_ context.Context, userUID string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[userUID], nil
}

func (s *memoryStore) FindGrant(_ context.Context, userUID, sceneID, workID string, grantType models.GrantType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch grantType {
	case models.GrantPurchase:
		if s.purchases[userUID+"|"+sceneID] {
			return true, nil
		}
		return workID != "" && s.purchases[userUID+"|work:"+workID], nil
	case models.GrantFreeSlot:
		bound, ok := s.slots[userUID]
		return ok && bound == sceneID, nil
	}
	return false, nil
}

func (s *memoryStore) IsFreeSlotConsumed(_ context.Context, userUID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[userUID]
	return ok, nil
}

func (s *memoryStore) ConsumeFreeSlot(_ context.Context, userUID, sceneID string) (models.FreeSlotResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bound, ok := s.slots[userUID]; ok {
		return models.FreeSlotResult{AlreadyConsumed: true, SceneID: bound}, nil
	}
	s.slots[userUID] = sceneID
	s.grants = append(s.grants, models.Grant{UserUID: userUID, SceneID: sceneID, Type: models.GrantFreeSlot})
	return models.FreeSlotResult{SceneID: sceneID}, nil
}

func (s *memoryStore) freeSlotGrants(userUID string) []models.Grant {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Grant
	for _, g := range s.grants {
		if g.UserUID == userUID && g.Type == models.GrantFreeSlot {
			out = append(out, g)
		}
	}
	return out
}
