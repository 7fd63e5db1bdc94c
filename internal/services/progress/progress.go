// Package progress хранит тренировки сцен и считает итоговую оценку.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/script-access/internal/lib/score"
	"github.com/magabrotheeeer/script-access/internal/models"
)

// ErrInvalidScore оценка вне шкалы своей версии.
var ErrInvalidScore = errors.New("score out of range")

// SessionRepository хранилище тренировок.
type SessionRepository interface {
	AddSession(ctx context.Context, session models.PracticeSession) error
	ListSessions(ctx context.Context, userUID, sceneID string) ([]models.PracticeSession, error)
}

// SceneScore итоговая оценка по сцене.
type SceneScore struct {
	SceneID  string  `json:"scene_id"`
	Score    float64 `json:"score"`
	Sessions int     `json:"sessions"`
}

// Service сервис тренировок.
type Service struct {
	repo     SessionRepository
	log      *slog.Logger
	halfLife time.Duration
	now      func() time.Time
}

// New создаёт Service. halfLife <= 0 заменяется на score.DefaultHalfLife.
func New(repo SessionRepository, halfLife time.Duration, log *slog.Logger) *Service {
	if halfLife <= 0 {
		halfLife = score.DefaultHalfLife
	}
	return &Service{repo: repo, log: log, halfLife: halfLife, now: time.Now}
}

// RecordSession сохраняет тренировку пользователя.
func (s *Service) RecordSession(ctx context.Context, userUID, sceneID string, in models.DummySession) error {
	const op = "progress.RecordSession"
	if in.Score == nil {
		return fmt.Errorf("%s: %w: score is required", op, ErrInvalidScore)
	}
	if in.ScoreVersion == models.ScoreVersionLegacy && *in.Score > 3 {
		return fmt.Errorf("%s: %w: legacy score %.2f", op, ErrInvalidScore, *in.Score)
	}

	session := models.PracticeSession{
		UserUID:      userUID,
		SceneID:      sceneID,
		Score:        in.Score,
		ScoreVersion: in.ScoreVersion,
		RecordedAt:   s.now().UTC(),
	}
	if err := s.repo.AddSession(ctx, session); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("practice session recorded", slog.String("op", op), slog.String("scene_id", sceneID))
	return nil
}

// Score считает оценку пользователя по сцене на текущий момент.
func (s *Service) Score(ctx context.Context, userUID, sceneID string) (SceneScore, error) {
	const op = "progress.Score"
	sessions, err := s.repo.ListSessions(ctx, userUID, sceneID)
	if err != nil {
		return SceneScore{}, fmt.Errorf("%s: %w", op, err)
	}
	return SceneScore{
		SceneID:  sceneID,
		Score:    score.Aggregate(sessions, s.now(), s.halfLife),
		Sessions: len(sessions),
	}, nil
}
