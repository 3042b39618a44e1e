package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", d.String())

	_, err = ParseDate("15/03/2026")
	assert.Error(t, err)
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2026, time.March, 15)

	encoded, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-15"`, string(encoded))

	var decoded Date
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, d.String(), decoded.String())
}

func TestDateUnmarshalToleratesTimestamps(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-15T10:30:00+00:00"`), &d))
	assert.Equal(t, "2026-03-15", d.String())
}

func TestDateZeroMarshalsAsNull(t *testing.T) {
	encoded, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(encoded))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
}

func TestDateAfter(t *testing.T) {
	earlier := NewDate(2026, time.March, 14)
	later := NewDate(2026, time.March, 15)

	assert.True(t, later.After(earlier))
	assert.False(t, earlier.After(later))
	assert.False(t, later.After(later))
}

func TestMatchWon(t *testing.T) {
	tests := []struct {
		name     string
		own      int
		opponent int
		want     bool
	}{
		{"win", 21, 15, true},
		{"loss", 15, 21, false},
		{"shutoutWin", 21, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Match{UserTeamScore: tt.own, OpponentTeamScore: tt.opponent}
			assert.Equal(t, tt.want, m.Won())
		})
	}
}
