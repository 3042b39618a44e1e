package repository

import (
	"context"
	"fmt"

	"smashtrack/internal/backend"
	"smashtrack/internal/cache"
	"smashtrack/internal/domain"

	"github.com/rs/zerolog"
)

const levelsTable = "player_levels"

// LevelRepository is the data access for the append-only skill-level ledger.
// The "current level" computation lives in a backend-side function so the
// authoritative value is derived in exactly one place.
type LevelRepository struct {
	rows   backend.Rows
	cache  *cache.UserCache
	logger zerolog.Logger
}

func NewLevelRepository(rows backend.Rows, userCache *cache.UserCache, logger zerolog.Logger) *LevelRepository {
	return &LevelRepository{
		rows:   rows,
		cache:  userCache,
		logger: logger,
	}
}

// CurrentLevel returns the user's current level from the backend aggregate,
// or nil when no ledger row exists. The nil sentinel is cached too: a user
// with no history should not trigger a remote call per read.
func (r *LevelRepository) CurrentLevel(ctx context.Context, userID string) (*float64, error) {
	if cached, ok := r.cache.Get(cache.OpCurrentLevel, userID); ok {
		return cached.(*float64), nil
	}

	var result []float64
	params := map[string]any{"p_user_id": userID}
	if err := r.rows.Rpc(ctx, "get_current_level", params, &result); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch current level")
		return nil, fmt.Errorf("failed to fetch current level: %w", err)
	}

	var level *float64
	if len(result) > 0 {
		level = &result[0]
	}

	r.cache.Set(cache.OpCurrentLevel, userID, level)
	return level, nil
}

// RecordChange appends one row to the level ledger. History is never updated
// or deleted from this system.
func (r *LevelRepository) RecordChange(ctx context.Context, userID string, level float64, effectiveDate domain.Date, notes string) error {
	if err := validateLevel("level", level); err != nil {
		return err
	}
	if effectiveDate.IsZero() {
		return domain.NewValidationError("effective date is required")
	}
	if effectiveDate.After(domain.Today()) {
		return domain.NewValidationError("effective date cannot be in the future")
	}

	params := map[string]any{
		"p_user_id":        userID,
		"p_new_level":      level,
		"p_effective_date": effectiveDate.String(),
	}
	if notes != "" {
		params["p_notes"] = notes
	}

	if err := r.rows.Rpc(ctx, "update_player_level", params, nil); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Float64("level", level).Msg("failed to record level change")
		return fmt.Errorf("failed to record level change: %w", err)
	}

	r.cache.Invalidate(userID, cache.OpCurrentLevel, cache.OpLevelHistory)
	r.logger.Info().Str("user_id", userID).Float64("level", level).Msg("level change recorded")
	return nil
}

// History returns the user's level ledger, newest effective date first.
func (r *LevelRepository) History(ctx context.Context, userID string) ([]domain.PlayerLevelRecord, error) {
	if cached, ok := r.cache.Get(cache.OpLevelHistory, userID); ok {
		return cached.([]domain.PlayerLevelRecord), nil
	}

	var records []domain.PlayerLevelRecord
	q := backend.NewQuery().Eq("user_id", userID).OrderDesc("effective_date")
	if err := r.rows.Select(ctx, levelsTable, q, &records); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list level history")
		return nil, fmt.Errorf("failed to list level history: %w", err)
	}
	if records == nil {
		records = []domain.PlayerLevelRecord{}
	}

	r.cache.Set(cache.OpLevelHistory, userID, records)
	return records, nil
}
