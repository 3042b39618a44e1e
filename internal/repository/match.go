package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"smashtrack/internal/backend"
	"smashtrack/internal/cache"
	"smashtrack/internal/domain"

	"github.com/rs/zerolog"
)

const matchesTable = "matches"

// updatableMatchColumns guards the single-field patch path: only real match
// columns can be corrected after entry.
var updatableMatchColumns = map[string]bool{
	"match_date":           true,
	"user_team_score":      true,
	"opponent_team_score":  true,
	"opponent_1":           true,
	"opponent_1_level":     true,
	"opponent_2":           true,
	"opponent_2_level":     true,
	"player_partner":       true,
	"player_partner_level": true,
}

// MatchRepository is the user-scoped data access for recorded matches. Reads
// fill the injected cache; every successful write invalidates the owning
// user's match-derived entries before returning.
type MatchRepository struct {
	rows   backend.Rows
	cache  *cache.UserCache
	logger zerolog.Logger
}

func NewMatchRepository(rows backend.Rows, userCache *cache.UserCache, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		rows:   rows,
		cache:  userCache,
		logger: logger,
	}
}

// List returns the user's matches, newest first. A user with no matches gets
// an empty slice, not an error.
func (r *MatchRepository) List(ctx context.Context, userID string) ([]domain.Match, error) {
	if cached, ok := r.cache.Get(cache.OpMatches, userID); ok {
		return cached.([]domain.Match), nil
	}

	var matches []domain.Match
	q := backend.NewQuery().Eq("user_id", userID).OrderDesc("match_date")
	if err := r.rows.Select(ctx, matchesTable, q, &matches); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list matches")
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	if matches == nil {
		matches = []domain.Match{}
	}

	r.cache.Set(cache.OpMatches, userID, matches)
	return matches, nil
}

func (r *MatchRepository) AddSingles(ctx context.Context, userID string, in domain.SinglesMatchInput) (*domain.Match, error) {
	if err := validateMatchDate(in.Date); err != nil {
		return nil, err
	}
	if err := validateName("opponent", in.Opponent); err != nil {
		return nil, err
	}
	if err := validateLevel("opponent level", in.OpponentLevel); err != nil {
		return nil, err
	}
	if err := validateScores(in.OwnScore, in.OpponentScore); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"user_id":             userID,
		"match_date":          in.Date.String(),
		"match_type":          domain.MatchTypeSingles,
		"opponent_1":          strings.TrimSpace(in.Opponent),
		"opponent_1_level":    in.OpponentLevel,
		"user_team_score":     in.OwnScore,
		"opponent_team_score": in.OpponentScore,
	}

	return r.insert(ctx, userID, payload)
}

func (r *MatchRepository) AddDoubles(ctx context.Context, userID string, in domain.DoublesMatchInput) (*domain.Match, error) {
	if err := validateMatchDate(in.Date); err != nil {
		return nil, err
	}
	players := []struct {
		label string
		name  string
		level float64
	}{
		{"partner", in.Partner, in.PartnerLevel},
		{"opponent 1", in.Opponent1, in.Opponent1Level},
		{"opponent 2", in.Opponent2, in.Opponent2Level},
	}
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if err := validateName(p.label, p.name); err != nil {
			return nil, err
		}
		if err := validateLevel(p.label+" level", p.level); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(p.name)
		if seen[trimmed] {
			return nil, domain.NewValidationError("all players must have different names")
		}
		seen[trimmed] = true
	}
	if err := validateScores(in.OwnScore, in.OpponentScore); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"user_id":              userID,
		"match_date":           in.Date.String(),
		"match_type":           domain.MatchTypeDoubles,
		"player_partner":       strings.TrimSpace(in.Partner),
		"player_partner_level": in.PartnerLevel,
		"opponent_1":           strings.TrimSpace(in.Opponent1),
		"opponent_1_level":     in.Opponent1Level,
		"opponent_2":           strings.TrimSpace(in.Opponent2),
		"opponent_2_level":     in.Opponent2Level,
		"user_team_score":      in.OwnScore,
		"opponent_team_score":  in.OpponentScore,
	}

	return r.insert(ctx, userID, payload)
}

func (r *MatchRepository) insert(ctx context.Context, userID string, payload map[string]any) (*domain.Match, error) {
	var created []domain.Match
	if err := r.rows.Insert(ctx, matchesTable, payload, &created); err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to insert match")
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}
	if len(created) == 0 {
		return nil, &domain.PersistenceError{Message: "backend returned no created match"}
	}

	r.cache.Invalidate(userID, cache.OpMatches, cache.OpOpponents)
	r.logger.Info().Str("user_id", userID).Str("match_id", created[0].ID).Msg("match recorded")
	return &created[0], nil
}

// UpdateField patches a single column on a match the user owns. The compound
// (id, user_id) filter means patching someone else's match changes nothing.
func (r *MatchRepository) UpdateField(ctx context.Context, matchID, userID, field string, value any) error {
	if !updatableMatchColumns[field] {
		return domain.NewValidationError("field %q cannot be updated", field)
	}

	q := backend.NewQuery().Eq("id", matchID).Eq("user_id", userID)
	if err := r.rows.Update(ctx, matchesTable, map[string]any{field: value}, q); err != nil {
		r.logger.Error().Err(err).Str("match_id", matchID).Str("field", field).Msg("failed to update match")
		return fmt.Errorf("failed to update match: %w", err)
	}

	r.cache.Invalidate(userID, cache.OpMatches, cache.OpOpponents)
	return nil
}

// Delete removes a match by the compound (id, user_id) key. Deleting a match
// that does not exist, or that belongs to another user, is a no-op.
func (r *MatchRepository) Delete(ctx context.Context, matchID, userID string) error {
	q := backend.NewQuery().Eq("id", matchID).Eq("user_id", userID)
	if err := r.rows.Delete(ctx, matchesTable, q); err != nil {
		r.logger.Error().Err(err).Str("match_id", matchID).Str("user_id", userID).Msg("failed to delete match")
		return fmt.Errorf("failed to delete match: %w", err)
	}

	r.cache.Invalidate(userID, cache.OpMatches, cache.OpOpponents)
	return nil
}

// DistinctOpponents returns every name the user has recorded a match with or
// against, trimmed, deduplicated and sorted. Feeds the "recently played"
// suggestions.
func (r *MatchRepository) DistinctOpponents(ctx context.Context, userID string) ([]string, error) {
	if cached, ok := r.cache.Get(cache.OpOpponents, userID); ok {
		return cached.([]string), nil
	}

	matches, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, m := range matches {
		for _, name := range []string{m.Opponent1, m.Opponent2, m.Partner} {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				seen[trimmed] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	r.cache.Set(cache.OpOpponents, userID, names)
	return names, nil
}
