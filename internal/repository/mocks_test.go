package repository

import (
	"context"
	"time"

	"smashtrack/internal/backend"
	"smashtrack/internal/cache"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

// mockRows is a hand-rolled testify mock for the backend rows interface.
// Out parameters are populated through Run hooks.
type mockRows struct {
	mock.Mock
}

func (m *mockRows) Select(ctx context.Context, table string, q *backend.Query, out any) error {
	args := m.Called(ctx, table, q, out)
	return args.Error(0)
}

func (m *mockRows) Insert(ctx context.Context, table string, payload any, out any) error {
	args := m.Called(ctx, table, payload, out)
	return args.Error(0)
}

func (m *mockRows) Update(ctx context.Context, table string, patch map[string]any, q *backend.Query) error {
	args := m.Called(ctx, table, patch, q)
	return args.Error(0)
}

func (m *mockRows) Delete(ctx context.Context, table string, q *backend.Query) error {
	args := m.Called(ctx, table, q)
	return args.Error(0)
}

func (m *mockRows) Rpc(ctx context.Context, fn string, params map[string]any, out any) error {
	args := m.Called(ctx, fn, params, out)
	return args.Error(0)
}

func newTestCache() *cache.UserCache {
	return cache.New(time.Minute)
}

func newMatchRepo(rows backend.Rows, c *cache.UserCache) *MatchRepository {
	return NewMatchRepository(rows, c, zerolog.Nop())
}

func newLevelRepo(rows backend.Rows, c *cache.UserCache) *LevelRepository {
	return NewLevelRepository(rows, c, zerolog.Nop())
}
