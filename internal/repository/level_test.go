package repository

import (
	"context"
	"testing"

	"smashtrack/internal/cache"
	"smashtrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func stubCurrentLevel(rows *mockRows, levels []float64) {
	rows.On("Rpc", mock.Anything, "get_current_level", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(3).(*[]float64) = levels
		}).
		Return(nil)
}

func TestCurrentLevelReturnsLatest(t *testing.T) {
	rows := new(mockRows)
	stubCurrentLevel(rows, []float64{4.5})
	repo := newLevelRepo(rows, newTestCache())

	level, err := repo.CurrentLevel(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, level)
	assert.Equal(t, 4.5, *level)

	params := rows.Calls[0].Arguments.Get(2).(map[string]any)
	assert.Equal(t, testUserID, params["p_user_id"])
}

func TestCurrentLevelNoHistoryIsNilNotError(t *testing.T) {
	rows := new(mockRows)
	stubCurrentLevel(rows, nil)
	repo := newLevelRepo(rows, newTestCache())

	level, err := repo.CurrentLevel(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Nil(t, level)
}

func TestCurrentLevelCachesTheNilSentinelToo(t *testing.T) {
	rows := new(mockRows)
	stubCurrentLevel(rows, nil)
	repo := newLevelRepo(rows, newTestCache())

	_, err := repo.CurrentLevel(context.Background(), testUserID)
	require.NoError(t, err)
	_, err = repo.CurrentLevel(context.Background(), testUserID)
	require.NoError(t, err)

	rows.AssertNumberOfCalls(t, "Rpc", 1)
}

func TestRecordChangeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name          string
		level         float64
		effectiveDate domain.Date
	}{
		{"levelBelowScale", 1.5, yesterday()},
		{"levelAboveScale", 6.0, yesterday()},
		{"levelOffStep", 4.3, yesterday()},
		{"missingDate", 4.5, domain.Date{}},
		{"futureDate", 4.5, tomorrow()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := new(mockRows)
			repo := newLevelRepo(rows, newTestCache())

			err := repo.RecordChange(context.Background(), testUserID, tt.level, tt.effectiveDate, "")
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
			rows.AssertNotCalled(t, "Rpc", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRecordChangeAppendsAndInvalidates(t *testing.T) {
	rows := new(mockRows)
	rows.On("Rpc", mock.Anything, "update_player_level", mock.Anything, mock.Anything).Return(nil)
	c := newTestCache()
	c.Set(cache.OpCurrentLevel, testUserID, ptr(4.0))
	c.Set(cache.OpLevelHistory, testUserID, []domain.PlayerLevelRecord{})
	repo := newLevelRepo(rows, c)

	date := yesterday()
	require.NoError(t, repo.RecordChange(context.Background(), testUserID, 4.5, date, "moved up"))

	params := rows.Calls[0].Arguments.Get(2).(map[string]any)
	assert.Equal(t, testUserID, params["p_user_id"])
	assert.Equal(t, 4.5, params["p_new_level"])
	assert.Equal(t, date.String(), params["p_effective_date"])
	assert.Equal(t, "moved up", params["p_notes"])

	_, ok := c.Get(cache.OpCurrentLevel, testUserID)
	assert.False(t, ok, "current level cache must be dropped after a ledger append")
	_, ok = c.Get(cache.OpLevelHistory, testUserID)
	assert.False(t, ok, "history cache must be dropped after a ledger append")
}

func TestRecordChangeOmitsEmptyNotes(t *testing.T) {
	rows := new(mockRows)
	rows.On("Rpc", mock.Anything, "update_player_level", mock.Anything, mock.Anything).Return(nil)
	repo := newLevelRepo(rows, newTestCache())

	require.NoError(t, repo.RecordChange(context.Background(), testUserID, 3.0, yesterday(), ""))

	params := rows.Calls[0].Arguments.Get(2).(map[string]any)
	_, present := params["p_notes"]
	assert.False(t, present)
}

func TestHistoryCachesResult(t *testing.T) {
	rows := new(mockRows)
	rows.On("Select", mock.Anything, levelsTable, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(3).(*[]domain.PlayerLevelRecord) = []domain.PlayerLevelRecord{
				{UserID: testUserID, Level: 4.5},
				{UserID: testUserID, Level: 4.0},
			}
		}).
		Return(nil)
	repo := newLevelRepo(rows, newTestCache())

	first, err := repo.History(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, first, 2)

	_, err = repo.History(context.Background(), testUserID)
	require.NoError(t, err)
	rows.AssertNumberOfCalls(t, "Select", 1)
}

func TestHistoryEmptyIsNotAnError(t *testing.T) {
	rows := new(mockRows)
	rows.On("Select", mock.Anything, levelsTable, mock.Anything, mock.Anything).Return(nil)
	repo := newLevelRepo(rows, newTestCache())

	records, err := repo.History(context.Background(), testUserID)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func ptr(v float64) *float64 {
	return &v
}
