package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/script-access/internal/models"
)

// FindGrant проверяет наличие выдачи заданного типа на сцену
// или, если workID не пуст, на произведение целиком.
func (s *Storage) FindGrant(ctx context.Context, userUID, sceneID, workID string, grantType models.GrantType) (bool, error) {
	const op = "storage.FindGrant"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM access_grants
			      WHERE user_uid = $1 AND grant_type = $2
			        AND ((scene_id <> '' AND scene_id = $3) OR ($4 <> '' AND work_id = $4))
			  )`
	var found bool
	if err := s.DB.QueryRowContext(ctx, query, userUID, string(grantType), sceneID, workID).Scan(&found); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return found, nil
}

// CreateGrant создаёт выдачу доступа. Повторная выдача того же доступа
// не ошибка: возвращается created=false и id существующей записи.
func (s *Storage) CreateGrant(ctx context.Context, grant models.Grant) (string, bool, error) {
	const op = "storage.CreateGrant"
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	id := uuid.New().String()
	query := `INSERT INTO access_grants (id, user_uid, scene_id, work_id, grant_type)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT DO NOTHING
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query, id, grant.UserUID, grant.SceneID, grant.WorkID, string(grant.Type)).Scan(&newID)
	if err == nil {
		return newID, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	var existing string
	err = s.DB.QueryRowContext(ctx,
		`SELECT id FROM access_grants
		 WHERE user_uid = $1 AND grant_type = $2 AND scene_id = $3 AND work_id = $4`,
		grant.UserUID, string(grant.Type), grant.SceneID, grant.WorkID).Scan(&existing)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return existing, false, nil
}

// ListGrants возвращает все выдачи пользователя в порядке создания.
func (s *Storage) ListGrants(ctx context.Context, userUID string) ([]models.Grant, error) {
	const op = "storage.ListGrants"
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_uid, scene_id, work_id, grant_type, created_at
		 FROM access_grants WHERE user_uid = $1 ORDER BY created_at, id`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Grant
	for rows.Next() {
		var g models.Grant
		var grantType string
		if err := rows.Scan(&g.ID, &g.UserUID, &g.SceneID, &g.WorkID, &grantType, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		g.Type = models.GrantType(grantType)
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
