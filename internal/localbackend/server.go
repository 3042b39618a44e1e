// Package localbackend is a development stand-in for the hosted backend. It
// speaks the same rows and auth dialect the real service does, backed by a
// local sqlite file, so the application can run end to end without network
// credentials.
package localbackend

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type Server struct {
	db     *sql.DB
	apiKey string
	logger zerolog.Logger
}

func NewServer(db *sql.DB, apiKey string, logger zerolog.Logger) *Server {
	return &Server{db: db, apiKey: apiKey, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/v1/signup", s.handleSignUp)
	mux.HandleFunc("POST /auth/v1/token", s.handleToken)
	mux.HandleFunc("POST /auth/v1/logout", s.handleLogout)
	mux.HandleFunc("GET /auth/v1/user", s.handleGetUser)

	mux.HandleFunc("/rest/v1/matches", s.requireKey(s.handleMatches))
	mux.HandleFunc("/rest/v1/player_levels", s.requireKey(s.handlePlayerLevels))
	mux.HandleFunc("POST /rest/v1/rpc/get_current_level", s.requireKey(s.handleGetCurrentLevel))
	mux.HandleFunc("POST /rest/v1/rpc/update_player_level", s.requireKey(s.handleUpdatePlayerLevel))

	return mux
}

func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != s.apiKey {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid api key"})
			return
		}
		next(w, r)
	}
}

var tableColumns = map[string][]string{
	"matches": {
		"id", "user_id", "match_date", "match_type",
		"user_team_score", "opponent_team_score",
		"opponent_1", "opponent_1_level", "opponent_2", "opponent_2_level",
		"player_partner", "player_partner_level", "created_at",
	},
	"player_levels": {"id", "user_id", "level", "effective_date", "notes", "created_at"},
}

// rowFilter is one parsed `column=eq.value` query parameter.
type rowFilter struct {
	column string
	value  string
}

type rowQuery struct {
	filters  []rowFilter
	orderBy  string
	orderDir string
	limit    int
}

func columnAllowed(table, column string) bool {
	for _, c := range tableColumns[table] {
		if c == column {
			return true
		}
	}
	return false
}

func parseRowQuery(table string, r *http.Request) (rowQuery, error) {
	q := rowQuery{}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		switch key {
		case "select":
			// only * is supported
		case "limit":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return q, fmt.Errorf("invalid limit %q", value)
			}
			q.limit = n
		case "order":
			column, dir, _ := strings.Cut(value, ".")
			if !columnAllowed(table, column) {
				return q, fmt.Errorf("unknown order column %q", column)
			}
			if dir != "asc" && dir != "desc" {
				return q, fmt.Errorf("invalid order direction %q", dir)
			}
			q.orderBy, q.orderDir = column, dir
		default:
			raw, ok := strings.CutPrefix(value, "eq.")
			if !ok {
				return q, fmt.Errorf("unsupported filter %q on %q", value, key)
			}
			if !columnAllowed(table, key) {
				return q, fmt.Errorf("unknown column %q", key)
			}
			q.filters = append(q.filters, rowFilter{column: key, value: raw})
		}
	}
	return q, nil
}

func (q rowQuery) whereClause() (string, []any) {
	if len(q.filters) == 0 {
		return "", nil
	}
	conditions := make([]string, 0, len(q.filters))
	args := make([]any, 0, len(q.filters))
	for _, f := range q.filters {
		conditions = append(conditions, f.column+" = ?")
		args = append(args, f.value)
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.selectRows(w, r, "matches")
	case http.MethodPost:
		s.insertRow(w, r, "matches")
	case http.MethodPatch:
		s.updateRows(w, r, "matches")
	case http.MethodDelete:
		s.deleteRows(w, r, "matches")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePlayerLevels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.selectRows(w, r, "player_levels")
	case http.MethodPost:
		s.insertRow(w, r, "player_levels")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) selectRows(w http.ResponseWriter, r *http.Request, table string) {
	q, err := parseRowQuery(table, r)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	query := "SELECT " + strings.Join(tableColumns[table], ", ") + " FROM " + table
	where, args := q.whereClause()
	query += where
	if q.orderBy != "" {
		query += " ORDER BY " + q.orderBy + " " + strings.ToUpper(q.orderDir) + ", created_at DESC"
	}
	if q.limit > 0 {
		query += " LIMIT " + strconv.Itoa(q.limit)
	}

	rows, err := s.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		s.serverError(w, err)
		return
	}
	defer rows.Close()

	results := []map[string]any{}
	columns := tableColumns[table]
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			s.serverError(w, err)
			return
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		s.serverError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) insertRow(w http.ResponseWriter, r *http.Request, table string) {
	var row map[string]any
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if _, ok := row["id"]; !ok {
		row["id"] = newRowID()
	}
	for column := range row {
		if !columnAllowed(table, column) {
			s.badRequest(w, fmt.Errorf("unknown column %q", column))
			return
		}
	}

	columns := make([]string, 0, len(row))
	placeholders := make([]string, 0, len(row))
	args := make([]any, 0, len(row))
	for _, column := range tableColumns[table] {
		value, ok := row[column]
		if !ok {
			continue
		}
		columns = append(columns, column)
		placeholders = append(placeholders, "?")
		args = append(args, value)
	}

	query := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") +
		") VALUES (" + strings.Join(placeholders, ", ") + ")"
	if _, err := s.db.ExecContext(r.Context(), query, args...); err != nil {
		s.serverError(w, err)
		return
	}

	s.returnByID(w, r, table, row["id"])
}

func (s *Server) updateRows(w http.ResponseWriter, r *http.Request, table string) {
	q, err := parseRowQuery(table, r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if len(q.filters) == 0 {
		s.badRequest(w, fmt.Errorf("update requires at least one filter"))
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	assignments := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch))
	for column, value := range patch {
		if !columnAllowed(table, column) {
			s.badRequest(w, fmt.Errorf("unknown column %q", column))
			return
		}
		assignments = append(assignments, column+" = ?")
		args = append(args, value)
	}
	if len(assignments) == 0 {
		s.badRequest(w, fmt.Errorf("empty patch"))
		return
	}

	where, whereArgs := q.whereClause()
	query := "UPDATE " + table + " SET " + strings.Join(assignments, ", ") + where
	if _, err := s.db.ExecContext(r.Context(), query, append(args, whereArgs...)...); err != nil {
		s.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteRows(w http.ResponseWriter, r *http.Request, table string) {
	q, err := parseRowQuery(table, r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	if len(q.filters) == 0 {
		s.badRequest(w, fmt.Errorf("delete requires at least one filter"))
		return
	}

	where, args := q.whereClause()
	if _, err := s.db.ExecContext(r.Context(), "DELETE FROM "+table+where, args...); err != nil {
		s.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) returnByID(w http.ResponseWriter, r *http.Request, table string, id any) {
	q := r.URL.Query()
	q.Set("id", fmt.Sprintf("eq.%v", id))
	r.URL.RawQuery = q.Encode()
	s.selectRows(w, r, table)
}

type rpcLevelParams struct {
	UserID        string   `json:"p_user_id"`
	NewLevel      *float64 `json:"p_new_level"`
	EffectiveDate string   `json:"p_effective_date"`
	Notes         string   `json:"p_notes"`
}

// handleGetCurrentLevel returns a single-element list holding the most recent
// level for the user, or an empty list when no level has been recorded.
func (s *Server) handleGetCurrentLevel(w http.ResponseWriter, r *http.Request) {
	var params rpcLevelParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if params.UserID == "" {
		s.badRequest(w, fmt.Errorf("p_user_id is required"))
		return
	}

	var level float64
	err := s.db.QueryRowContext(r.Context(),
		"SELECT level FROM player_levels WHERE user_id = ? ORDER BY effective_date DESC, created_at DESC LIMIT 1",
		params.UserID).Scan(&level)
	if err == sql.ErrNoRows {
		s.writeJSON(w, http.StatusOK, []float64{})
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, []float64{level})
}

func (s *Server) handleUpdatePlayerLevel(w http.ResponseWriter, r *http.Request) {
	var params rpcLevelParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if params.UserID == "" || params.NewLevel == nil || params.EffectiveDate == "" {
		s.badRequest(w, fmt.Errorf("p_user_id, p_new_level and p_effective_date are required"))
		return
	}

	if _, err := s.db.ExecContext(r.Context(),
		"INSERT INTO player_levels (id, user_id, level, effective_date, notes) VALUES (?, ?, ?, ?, ?)",
		newRowID(), params.UserID, *params.NewLevel, params.EffectiveDate, params.Notes); err != nil {
		s.serverError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("local backend request failed")
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
}
