package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/script-access/internal/models"
)

// IsAdmin сообщает, отмечен ли пользователь как администратор.
// Отсутствие записи означает false без ошибки.
func (s *Storage) IsAdmin(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.IsAdmin"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var isAdmin bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT is_admin FROM admin_flags WHERE user_uid = $1`, userUID).Scan(&isAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return isAdmin, nil
}

// SetAdmin выставляет флаг администратора. Используется утилитами и тестами,
// сервис сам флаги не меняет.
func (s *Storage) SetAdmin(ctx context.Context, userUID string, isAdmin bool) error {
	const op = "storage.SetAdmin"
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO admin_flags (user_uid, is_admin) VALUES ($1, $2)
		 ON CONFLICT (user_uid) DO UPDATE SET is_admin = EXCLUDED.is_admin, updated_at = NOW()`,
		userUID, isAdmin)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSubscription возвращает подписку пользователя или nil, если её нет.
func (s *Storage) GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, status, starts_at, expires_at
			  FROM subscriptions
			  WHERE user_uid = $1`
	var sub models.Subscription
	var expiresAt sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&sub.UserUID, &sub.Status, &sub.StartsAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if expiresAt.Valid {
		sub.ExpiresAt = &expiresAt.Time
	}
	return &sub, nil
}

// UpsertSubscription сохраняет единственную подписку пользователя.
func (s *Storage) UpsertSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.UpsertSubscription"
	query := `INSERT INTO subscriptions (user_uid, status, starts_at, expires_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_uid) DO UPDATE
			  SET status = EXCLUDED.status, starts_at = EXCLUDED.starts_at,
			      expires_at = EXCLUDED.expires_at, updated_at = NOW()`
	_, err := s.DB.ExecContext(ctx, query, sub.UserUID, sub.Status, sub.StartsAt, sub.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
