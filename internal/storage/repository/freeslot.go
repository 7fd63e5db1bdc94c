package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/script-access/internal/models"
)

// IsFreeSlotConsumed сообщает, использовал ли пользователь бесплатный слот.
func (s *Storage) IsFreeSlotConsumed(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.IsFreeSlotConsumed"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var consumed bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM free_slots WHERE user_uid = $1)`, userUID).Scan(&consumed)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return consumed, nil
}

// ConsumeFreeSlot атомарно занимает бесплатный слот пользователя под сцену
// и создаёт выдачу типа free_slot в той же транзакции.
//
// Первичный ключ free_slots(user_uid) служит точкой сериализации: из
// параллельных вызовов вставку выполнит только один, остальные получат
// конфликт и вернут AlreadyConsumed с уже привязанной сценой.
func (s *Storage) ConsumeFreeSlot(ctx context.Context, userUID, sceneID string) (res models.FreeSlotResult, err error) {
	const op = "storage.ConsumeFreeSlot"
	select {
	case <-ctx.Done():
		return res, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var bound string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO free_slots (user_uid, scene_id) VALUES ($1, $2)
		 ON CONFLICT (user_uid) DO NOTHING
		 RETURNING scene_id`, userUID, sceneID).Scan(&bound)
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.QueryRowContext(ctx,
			`SELECT scene_id FROM free_slots WHERE user_uid = $1`, userUID).Scan(&bound)
		if err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		if err = tx.Commit(); err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		return models.FreeSlotResult{AlreadyConsumed: true, SceneID: bound}, nil
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO access_grants (id, user_uid, scene_id, grant_type)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), userUID, sceneID, string(models.GrantFreeSlot))
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	return models.FreeSlotResult{AlreadyConsumed: false, SceneID: bound}, nil
}
