package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/script-access/internal/models"
)

// AddSession сохраняет запись о тренировке сцены.
func (s *Storage) AddSession(ctx context.Context, session models.PracticeSession) error {
	const op = "storage.AddSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO practice_sessions (user_uid, scene_id, score, score_version, recorded_at)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query,
		session.UserUID, session.SceneID, session.Score, session.ScoreVersion, session.RecordedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListSessions возвращает тренировки пользователя по сцене, от старых к новым.
func (s *Storage) ListSessions(ctx context.Context, userUID, sceneID string) ([]models.PracticeSession, error) {
	const op = "storage.ListSessions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, scene_id, score, score_version, recorded_at
			  FROM practice_sessions
			  WHERE user_uid = $1 AND scene_id = $2
			  ORDER BY recorded_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID, sceneID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.PracticeSession
	for rows.Next() {
		var ps models.PracticeSession
		var score sql.NullFloat64
		if err = rows.Scan(&ps.UserUID, &ps.SceneID, &score, &ps.ScoreVersion, &ps.RecordedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if score.Valid {
			v := score.Float64
			ps.Score = &v
		}
		result = append(result, ps)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
