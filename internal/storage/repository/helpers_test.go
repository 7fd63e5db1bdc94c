package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/script-access/internal/migrations"
	"github.com/magabrotheeeer/script-access/internal/storage/pgtest"
)

// setupTestDatabase поднимает чистую базу с применёнными миграциями.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	dsn := pgtest.StartPostgres(t)

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	_, err = migrations.Run(storage.DB, path)
	require.NoError(t, err)
	return storage
}

// countGrants считает выдачи пользователя заданного типа.
func countGrants(t *testing.T, s *Storage, userUID, grantType string) int {
	t.Helper()
	var n int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM access_grants WHERE user_uid = $1 AND grant_type = $2`,
		userUID, grantType).Scan(&n)
	require.NoError(t, err)
	return n
}
