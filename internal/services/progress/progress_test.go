package progress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/script-access/internal/models"
)

var now = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

type MockSessionRepository struct{ mock.Mock }

func (m *MockSessionRepository) AddSession(ctx context.Context, session models.PracticeSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *MockSessionRepository) ListSessions(ctx context.Context, userUID, sceneID string) ([]models.PracticeSession, error) {
	args := m.Called(ctx, userUID, sceneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PracticeSession), args.Error(1)
}

func newService(repo SessionRepository) *Service {
	s := New(repo, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return now }
	return s
}

func ptr(v float64) *float64 { return &v }

func TestRecordSession(t *testing.T) {
	repo := new(MockSessionRepository)
	repo.On("AddSession", mock.Anything, models.PracticeSession{
		UserUID:      "u1",
		SceneID:      "s1",
		Score:        ptr(7.5),
		ScoreVersion: models.ScoreVersionCurrent,
		RecordedAt:   now,
	}).Return(nil).Once()

	err := newService(repo).RecordSession(context.Background(), "u1", "s1",
		models.DummySession{Score: ptr(7.5), ScoreVersion: models.ScoreVersionCurrent})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRecordSession_InvalidScore(t *testing.T) {
	repo := new(MockSessionRepository)
	svc := newService(repo)

	err := svc.RecordSession(context.Background(), "u1", "s1", models.DummySession{})
	assert.ErrorIs(t, err, ErrInvalidScore)

	err = svc.RecordSession(context.Background(), "u1", "s1",
		models.DummySession{Score: ptr(5), ScoreVersion: models.ScoreVersionLegacy})
	assert.ErrorIs(t, err, ErrInvalidScore)

	repo.AssertNotCalled(t, "AddSession", mock.Anything, mock.Anything)
}

func TestScore_RecencyWeighted(t *testing.T) {
	repo := new(MockSessionRepository)
	repo.On("ListSessions", mock.Anything, "u1", "s1").Return([]models.PracticeSession{
		{Score: ptr(8), ScoreVersion: models.ScoreVersionCurrent, RecordedAt: now.Add(-24 * time.Hour)},
		{Score: ptr(6), ScoreVersion: models.ScoreVersionCurrent, RecordedAt: now.Add(-15 * 24 * time.Hour)},
		{Score: nil, RecordedAt: now},
	}, nil)

	got, err := newService(repo).Score(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SceneID)
	assert.Equal(t, 3, got.Sessions)
	assert.InDelta(t, 7.333, got.Score, 0.001)
}

func TestScore_Empty(t *testing.T) {
	repo := new(MockSessionRepository)
	repo.On("ListSessions", mock.Anything, "u1", "s1").Return(nil, nil)

	got, err := newService(repo).Score(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Zero(t, got.Score)
	assert.Zero(t, got.Sessions)
}

func TestScore_StorageError(t *testing.T) {
	repo := new(MockSessionRepository)
	dbErr := errors.New("db down")
	repo.On("ListSessions", mock.Anything, "u1", "s1").Return(nil, dbErr)

	_, err := newService(repo).Score(context.Background(), "u1", "s1")
	assert.ErrorIs(t, err, dbErr)
}
