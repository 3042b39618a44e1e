package repository

import (
	"context"
	"testing"
	"time"

	"smashtrack/internal/cache"
	"smashtrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

func yesterday() domain.Date {
	t := time.Now().AddDate(0, 0, -1)
	return domain.NewDate(t.Year(), t.Month(), t.Day())
}

func tomorrow() domain.Date {
	t := time.Now().AddDate(0, 0, 1)
	return domain.NewDate(t.Year(), t.Month(), t.Day())
}

func validSingles() domain.SinglesMatchInput {
	return domain.SinglesMatchInput{
		Date:          yesterday(),
		Opponent:      "Alice",
		OpponentLevel: 4.0,
		OwnScore:      21,
		OpponentScore: 15,
	}
}

func validDoubles() domain.DoublesMatchInput {
	return domain.DoublesMatchInput{
		Date:           yesterday(),
		Partner:        "Bob",
		PartnerLevel:   3.5,
		Opponent1:      "Carol",
		Opponent1Level: 4.0,
		Opponent2:      "Dave",
		Opponent2Level: 4.5,
		OwnScore:       21,
		OpponentScore:  19,
	}
}

func stubSelectMatches(rows *mockRows, matches []domain.Match) {
	rows.On("Select", mock.Anything, matchesTable, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(3).(*[]domain.Match) = matches
		}).
		Return(nil)
}

func stubInsertMatch(rows *mockRows, created domain.Match) {
	rows.On("Insert", mock.Anything, matchesTable, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(3).(*[]domain.Match) = []domain.Match{created}
		}).
		Return(nil)
}

func TestListCachesResult(t *testing.T) {
	rows := new(mockRows)
	stubSelectMatches(rows, []domain.Match{{ID: "m1", UserID: testUserID}})
	repo := newMatchRepo(rows, newTestCache())

	first, err := repo.List(context.Background(), testUserID)
	require.NoError(t, err)
	second, err := repo.List(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	rows.AssertNumberOfCalls(t, "Select", 1)
}

func TestListEmptyIsNotAnError(t *testing.T) {
	rows := new(mockRows)
	stubSelectMatches(rows, nil)
	repo := newMatchRepo(rows, newTestCache())

	matches, err := repo.List(context.Background(), testUserID)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestListCacheIsPerUser(t *testing.T) {
	rows := new(mockRows)
	stubSelectMatches(rows, []domain.Match{{ID: "m1"}})
	repo := newMatchRepo(rows, newTestCache())

	_, err := repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	_, err = repo.List(context.Background(), "user-2")
	require.NoError(t, err)

	rows.AssertNumberOfCalls(t, "Select", 2)
}

func TestAddSinglesRejectsBadInputBeforeAnyRemoteCall(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.SinglesMatchInput)
	}{
		{"missingDate", func(in *domain.SinglesMatchInput) { in.Date = domain.Date{} }},
		{"futureDate", func(in *domain.SinglesMatchInput) { in.Date = tomorrow() }},
		{"emptyOpponent", func(in *domain.SinglesMatchInput) { in.Opponent = "   " }},
		{"opponentWithDigits", func(in *domain.SinglesMatchInput) { in.Opponent = "Alice2" }},
		{"opponentWithPunctuation", func(in *domain.SinglesMatchInput) { in.Opponent = "Alice!" }},
		{"levelTooLow", func(in *domain.SinglesMatchInput) { in.OpponentLevel = 1.5 }},
		{"levelTooHigh", func(in *domain.SinglesMatchInput) { in.OpponentLevel = 6.0 }},
		{"levelOffStep", func(in *domain.SinglesMatchInput) { in.OpponentLevel = 3.7 }},
		{"negativeScore", func(in *domain.SinglesMatchInput) { in.OwnScore = -1 }},
		{"tiedScore", func(in *domain.SinglesMatchInput) { in.OwnScore = 21; in.OpponentScore = 21 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := new(mockRows)
			repo := newMatchRepo(rows, newTestCache())

			in := validSingles()
			tt.mutate(&in)

			_, err := repo.AddSingles(context.Background(), testUserID, in)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
			rows.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAddSinglesInsertsAndInvalidates(t *testing.T) {
	rows := new(mockRows)
	stubSelectMatches(rows, []domain.Match{})
	stubInsertMatch(rows, domain.Match{ID: "m1", UserID: testUserID, MatchType: domain.MatchTypeSingles})
	c := newTestCache()
	repo := newMatchRepo(rows, c)

	// Warm the read caches, then write.
	_, err := repo.List(context.Background(), testUserID)
	require.NoError(t, err)
	_, err = repo.DistinctOpponents(context.Background(), testUserID)
	require.NoError(t, err)

	created, err := repo.AddSingles(context.Background(), testUserID, validSingles())
	require.NoError(t, err)
	assert.Equal(t, "m1", created.ID)

	_, ok := c.Get(cache.OpMatches, testUserID)
	assert.False(t, ok, "match list cache must be dropped after a write")
	_, ok = c.Get(cache.OpOpponents, testUserID)
	assert.False(t, ok, "opponents cache must be dropped after a write")
}

func TestAddSinglesTrimsOpponentName(t *testing.T) {
	rows := new(mockRows)
	stubInsertMatch(rows, domain.Match{ID: "m1"})
	repo := newMatchRepo(rows, newTestCache())

	in := validSingles()
	in.Opponent = "  Alice  "

	_, err := repo.AddSingles(context.Background(), testUserID, in)
	require.NoError(t, err)

	payload := rows.Calls[0].Arguments.Get(2).(map[string]any)
	assert.Equal(t, "Alice", payload["opponent_1"])
	assert.Equal(t, domain.MatchTypeSingles, payload["match_type"])
}

func TestAddSinglesReportsEmptyInsertResult(t *testing.T) {
	rows := new(mockRows)
	rows.On("Insert", mock.Anything, matchesTable, mock.Anything, mock.Anything).Return(nil)
	repo := newMatchRepo(rows, newTestCache())

	_, err := repo.AddSingles(context.Background(), testUserID, validSingles())
	assert.True(t, domain.IsPersistence(err))
}

func TestAddDoublesRejectsDuplicateNames(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.DoublesMatchInput)
	}{
		{"partnerEqualsOpponent", func(in *domain.DoublesMatchInput) { in.Opponent1 = "Bob" }},
		{"opponentsEqual", func(in *domain.DoublesMatchInput) { in.Opponent2 = "Carol" }},
		{"equalAfterTrim", func(in *domain.DoublesMatchInput) { in.Opponent2 = " Carol " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := new(mockRows)
			repo := newMatchRepo(rows, newTestCache())

			in := validDoubles()
			tt.mutate(&in)

			_, err := repo.AddDoubles(context.Background(), testUserID, in)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
			rows.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAddDoublesInserts(t *testing.T) {
	rows := new(mockRows)
	stubInsertMatch(rows, domain.Match{ID: "m2", MatchType: domain.MatchTypeDoubles})
	repo := newMatchRepo(rows, newTestCache())

	created, err := repo.AddDoubles(context.Background(), testUserID, validDoubles())
	require.NoError(t, err)
	assert.Equal(t, "m2", created.ID)

	payload := rows.Calls[0].Arguments.Get(2).(map[string]any)
	assert.Equal(t, domain.MatchTypeDoubles, payload["match_type"])
	assert.Equal(t, "Bob", payload["player_partner"])
	assert.Equal(t, "Carol", payload["opponent_1"])
	assert.Equal(t, "Dave", payload["opponent_2"])
}

func TestUpdateFieldRejectsUnknownColumn(t *testing.T) {
	rows := new(mockRows)
	repo := newMatchRepo(rows, newTestCache())

	err := repo.UpdateField(context.Background(), "m1", testUserID, "user_id", "someone-else")
	assert.True(t, domain.IsValidation(err))
	rows.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateFieldPatchesAndInvalidates(t *testing.T) {
	rows := new(mockRows)
	rows.On("Update", mock.Anything, matchesTable, map[string]any{"user_team_score": 19}, mock.Anything).Return(nil)
	c := newTestCache()
	c.Set(cache.OpMatches, testUserID, []domain.Match{})
	repo := newMatchRepo(rows, c)

	err := repo.UpdateField(context.Background(), "m1", testUserID, "user_team_score", 19)
	require.NoError(t, err)

	_, ok := c.Get(cache.OpMatches, testUserID)
	assert.False(t, ok)
	rows.AssertExpectations(t)
}

func TestDeleteIsIdempotent(t *testing.T) {
	rows := new(mockRows)
	rows.On("Delete", mock.Anything, matchesTable, mock.Anything).Return(nil)
	repo := newMatchRepo(rows, newTestCache())

	require.NoError(t, repo.Delete(context.Background(), "m1", testUserID))
	require.NoError(t, repo.Delete(context.Background(), "m1", testUserID))
	rows.AssertNumberOfCalls(t, "Delete", 2)
}

func TestDistinctOpponentsUnionsTrimsAndSorts(t *testing.T) {
	rows := new(mockRows)
	stubSelectMatches(rows, []domain.Match{
		{MatchType: domain.MatchTypeSingles, Opponent1: " Carol "},
		{MatchType: domain.MatchTypeDoubles, Opponent1: "Alice", Opponent2: "Dave", Partner: "Bob"},
		{MatchType: domain.MatchTypeSingles, Opponent1: "Alice"},
	})
	repo := newMatchRepo(rows, newTestCache())

	names, err := repo.DistinctOpponents(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob", "Carol", "Dave"}, names)
}

func TestDistinctOpponentsUsesCache(t *testing.T) {
	rows := new(mockRows)
	stubSelectMatches(rows, []domain.Match{{Opponent1: "Alice"}})
	repo := newMatchRepo(rows, newTestCache())

	_, err := repo.DistinctOpponents(context.Background(), testUserID)
	require.NoError(t, err)
	_, err = repo.DistinctOpponents(context.Background(), testUserID)
	require.NoError(t, err)

	rows.AssertNumberOfCalls(t, "Select", 1)
}
