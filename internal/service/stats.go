package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"smashtrack/internal/constants"
	"smashtrack/internal/domain"
	"smashtrack/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StatsService derives the analytics views from the user's match log and
// level ledger. It owns no state and no cache of its own; the repositories
// already serve cached reads.
type StatsService struct {
	matches *repository.MatchRepository
	levels  *repository.LevelRepository
	logger  zerolog.Logger
}

func NewStatsService(matches *repository.MatchRepository, levels *repository.LevelRepository, logger zerolog.Logger) *StatsService {
	return &StatsService{matches: matches, levels: levels, logger: logger}
}

// MatchFilter narrows the match log before aggregation: a rolling window in
// days (0 = all time) or an explicit date range, plus a match type.
type MatchFilter struct {
	Days      int
	From      domain.Date
	To        domain.Date
	MatchType string
}

func (f MatchFilter) apply(matches []domain.Match) []domain.Match {
	var cutoff time.Time
	if f.Days > 0 {
		cutoff = time.Now().AddDate(0, 0, -f.Days)
	}

	filtered := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		if f.MatchType != "" && m.MatchType != f.MatchType {
			continue
		}
		if !cutoff.IsZero() && m.MatchDate.Time.Before(cutoff) {
			continue
		}
		if !f.From.IsZero() && m.MatchDate.Time.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && m.MatchDate.Time.After(f.To.Time) {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

type Summary struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"win_rate"`
}

type Overview struct {
	Summary      Summary  `json:"summary"`
	CurrentLevel *float64 `json:"current_level"`
}

// Overview fetches the match log and the current level concurrently and
// folds them into the headline metrics.
func (s *StatsService) Overview(ctx context.Context, userID string, f MatchFilter) (*Overview, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var (
		matches []domain.Match
		level   *float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.matches.List(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		level, err = s.levels.CurrentLevel(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to build overview")
		return nil, fmt.Errorf("failed to build overview: %w", err)
	}

	return &Overview{
		Summary:      summarize(f.apply(matches)),
		CurrentLevel: level,
	}, nil
}

func summarize(matches []domain.Match) Summary {
	s := Summary{Total: len(matches)}
	for _, m := range matches {
		if m.Won() {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	s.WinRate = rate(s.Wins, s.Total)
	return s
}

type MonthlyBucket struct {
	Month  string `json:"month"`
	Label  string `json:"label"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Total  int    `json:"total"`
}

// Monthly buckets wins and losses per calendar month, oldest first.
func (s *StatsService) Monthly(ctx context.Context, userID string, f MatchFilter) ([]MonthlyBucket, error) {
	matches, err := s.matches.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*MonthlyBucket)
	for _, m := range f.apply(matches) {
		key := m.MatchDate.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &MonthlyBucket{Month: key, Label: m.MatchDate.Format("January 2006")}
			buckets[key] = b
		}
		b.Total++
		if m.Won() {
			b.Wins++
		} else {
			b.Losses++
		}
	}

	months := make([]MonthlyBucket, 0, len(buckets))
	for _, b := range buckets {
		months = append(months, *b)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months, nil
}

type ScoringAverage struct {
	MatchType  string  `json:"match_type"`
	AvgFor     float64 `json:"avg_points_for"`
	AvgAgainst float64 `json:"avg_points_against"`
	Matches    int     `json:"matches"`
}

// Scoring averages points for and against, grouped by match type.
func (s *StatsService) Scoring(ctx context.Context, userID string, f MatchFilter) ([]ScoringAverage, error) {
	matches, err := s.matches.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	type sums struct {
		forPts, againstPts, count int
	}
	totals := make(map[string]*sums)
	for _, m := range f.apply(matches) {
		t, ok := totals[m.MatchType]
		if !ok {
			t = &sums{}
			totals[m.MatchType] = t
		}
		t.forPts += m.UserTeamScore
		t.againstPts += m.OpponentTeamScore
		t.count++
	}

	averages := make([]ScoringAverage, 0, len(totals))
	for matchType, t := range totals {
		averages = append(averages, ScoringAverage{
			MatchType:  matchType,
			AvgFor:     round1(float64(t.forPts) / float64(t.count)),
			AvgAgainst: round1(float64(t.againstPts) / float64(t.count)),
			Matches:    t.count,
		})
	}
	sort.Slice(averages, func(i, j int) bool { return averages[i].MatchType < averages[j].MatchType })
	return averages, nil
}

type HeadToHead struct {
	Opponent string  `json:"opponent"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Total    int     `json:"total"`
	WinRate  float64 `json:"win_rate"`
}

type HeadToHeadReport struct {
	Singles []HeadToHead `json:"singles"`
	Doubles []HeadToHead `json:"doubles"`
}

// HeadToHead groups singles results by opponent and doubles results by the
// opposing pair, highest win rate first.
func (s *StatsService) HeadToHead(ctx context.Context, userID string, f MatchFilter) (*HeadToHeadReport, error) {
	matches, err := s.matches.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	singles := make(map[string]*HeadToHead)
	doubles := make(map[string]*HeadToHead)
	for _, m := range f.apply(matches) {
		var key string
		var group map[string]*HeadToHead
		switch m.MatchType {
		case domain.MatchTypeSingles:
			key = m.Opponent1
			group = singles
		case domain.MatchTypeDoubles:
			key = m.Opponent1 + " & " + m.Opponent2
			group = doubles
		default:
			continue
		}

		h, ok := group[key]
		if !ok {
			h = &HeadToHead{Opponent: key}
			group[key] = h
		}
		h.Total++
		if m.Won() {
			h.Wins++
		} else {
			h.Losses++
		}
	}

	return &HeadToHeadReport{
		Singles: sortHeadToHead(singles),
		Doubles: sortHeadToHead(doubles),
	}, nil
}

func sortHeadToHead(group map[string]*HeadToHead) []HeadToHead {
	records := make([]HeadToHead, 0, len(group))
	for _, h := range group {
		h.WinRate = rate(h.Wins, h.Total)
		records = append(records, *h)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].WinRate != records[j].WinRate {
			return records[i].WinRate > records[j].WinRate
		}
		return records[i].Opponent < records[j].Opponent
	})
	return records
}

type LevelProgression struct {
	Current *float64                   `json:"current_level"`
	History []domain.PlayerLevelRecord `json:"history"`
}

// LevelProgression pairs the authoritative current level with the ledger.
func (s *StatsService) LevelProgression(ctx context.Context, userID string) (*LevelProgression, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var (
		current *float64
		history []domain.PlayerLevelRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.levels.CurrentLevel(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.levels.History(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to build level progression")
		return nil, fmt.Errorf("failed to build level progression: %w", err)
	}

	return &LevelProgression{Current: current, History: history}, nil
}

// rate is a percentage rounded to one decimal place.
func rate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(wins) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
