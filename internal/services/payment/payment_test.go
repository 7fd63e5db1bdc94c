package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/script-access/internal/models"
)

const userUID = "5b0f8c1e-4a9d-4c1e-9f7a-0d8e2b3c4a5f"

type MockGrantRepository struct{ mock.Mock }

func (m *MockGrantRepository) CreateGrant(ctx context.Context, grant models.Grant) (string, bool, error) {
	args := m.Called(ctx, grant)
	return args.String(0), args.Bool(1), args.Error(2)
}

func newService(repo GrantRepository) *Service {
	return New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func succeeded(md map[string]string) *models.PaymentEvent {
	return &models.PaymentEvent{
		Event:  models.PaymentSucceeded,
		Object: models.PaymentObject{ID: "pay-1", Status: "succeeded", Metadata: md},
	}
}

func TestProcessWebhookEvent_SceneAndWork(t *testing.T) {
	tests := []struct {
		name string
		md   map[string]string
		want models.Grant
	}{
		{
			name: "scene purchase",
			md:   map[string]string{"user_uid": userUID, "scene_id": "s1"},
			want: models.Grant{UserUID: userUID, SceneID: "s1", Type: models.GrantPurchase},
		},
		{
			name: "work purchase wins over scene",
			md:   map[string]string{"user_uid": userUID, "scene_id": "s1", "work_id": "w1"},
			want: models.Grant{UserUID: userUID, WorkID: "w1", Type: models.GrantPurchase},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockGrantRepository)
			repo.On("CreateGrant", mock.Anything, tt.want).Return("grant-1", true, nil).Once()

			err := newService(repo).ProcessWebhookEvent(context.Background(), succeeded(tt.md))
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestProcessWebhookEvent_DuplicateIsSuccess(t *testing.T) {
	repo := new(MockGrantRepository)
	repo.On("CreateGrant", mock.Anything, mock.Anything).Return("grant-1", false, nil)

	err := newService(repo).ProcessWebhookEvent(context.Background(),
		succeeded(map[string]string{"user_uid": userUID, "scene_id": "s1"}))
	assert.NoError(t, err)
}

func TestProcessWebhookEvent_InvalidMetadata(t *testing.T) {
	cases := map[string]map[string]string{
		"no user":      {"scene_id": "s1"},
		"bad user":     {"user_uid": "42", "scene_id": "s1"},
		"no item":      {"user_uid": userUID},
		"nil metadata": nil,
	}
	for name, md := range cases {
		t.Run(name, func(t *testing.T) {
			repo := new(MockGrantRepository)
			err := newService(repo).ProcessWebhookEvent(context.Background(), succeeded(md))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMetadata)
			repo.AssertNotCalled(t, "CreateGrant", mock.Anything, mock.Anything)
		})
	}
}

func TestProcessWebhookEvent_IgnoresOtherEvents(t *testing.T) {
	repo := new(MockGrantRepository)
	event := succeeded(map[string]string{"user_uid": userUID, "scene_id": "s1"})
	event.Event = models.PaymentCanceled

	require.NoError(t, newService(repo).ProcessWebhookEvent(context.Background(), event))
	repo.AssertNotCalled(t, "CreateGrant", mock.Anything, mock.Anything)
}

func TestProcessWebhookEvent_StorageError(t *testing.T) {
	repo := new(MockGrantRepository)
	dbErr := errors.New("db down")
	repo.On("CreateGrant", mock.Anything, mock.Anything).Return("", false, dbErr)

	err := newService(repo).ProcessWebhookEvent(context.Background(),
		succeeded(map[string]string{"user_uid": userUID, "scene_id": "s1"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrInvalidMetadata)
}
