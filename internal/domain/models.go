package domain

import (
	"time"
)

const (
	MatchTypeSingles = "singles"
	MatchTypeDoubles = "doubles"
)

// Match is one recorded contest. Doubles rows carry the partner and second
// opponent; singles rows leave those fields empty.
type Match struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	MatchDate         Date    `json:"match_date"`
	MatchType         string  `json:"match_type"`
	UserTeamScore     int     `json:"user_team_score"`
	OpponentTeamScore int     `json:"opponent_team_score"`
	Opponent1         string  `json:"opponent_1"`
	Opponent1Level    float64 `json:"opponent_1_level,omitempty"`
	Opponent2         string  `json:"opponent_2,omitempty"`
	Opponent2Level    float64 `json:"opponent_2_level,omitempty"`
	Partner           string  `json:"player_partner,omitempty"`
	PartnerLevel      float64 `json:"player_partner_level,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Match) Won() bool {
	return m.UserTeamScore > m.OpponentTeamScore
}

// PlayerLevelRecord is one row of the append-only level ledger.
type PlayerLevelRecord struct {
	ID            string    `json:"id,omitempty"`
	UserID        string    `json:"user_id"`
	Level         float64   `json:"level"`
	EffectiveDate Date      `json:"effective_date"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserIdentity is the provider-owned view of a user. Read-only here except
// at registration, where display_name lands in the provider metadata.
type UserIdentity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type SinglesMatchInput struct {
	Date          Date    `json:"match_date"`
	Opponent      string  `json:"opponent"`
	OpponentLevel float64 `json:"opponent_level"`
	OwnScore      int     `json:"own_score"`
	OpponentScore int     `json:"opponent_score"`
}

type DoublesMatchInput struct {
	Date           Date    `json:"match_date"`
	Partner        string  `json:"partner"`
	PartnerLevel   float64 `json:"partner_level"`
	Opponent1      string  `json:"opponent_1"`
	Opponent1Level float64 `json:"opponent_1_level"`
	Opponent2      string  `json:"opponent_2"`
	Opponent2Level float64 `json:"opponent_2_level"`
	OwnScore       int     `json:"own_score"`
	OpponentScore  int     `json:"opponent_score"`
}
