// Package pg implements the Postgres-backed stores. It uses database/sql
// over the pgx stdlib driver so tests can substitute sqlmock.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"auditline.org/internal/calls"
	"auditline.org/internal/ids"
)

type Store struct {
	db *sql.DB
}

var _ calls.Service = (*Store)(nil)

// Open connects to Postgres and configures the connection pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// sortColumns maps API sort fields to call columns. Only values from this
// map ever reach the ORDER BY clause.
var sortColumns = map[string]string{
	"date":      "call_date",
	"duration":  "duration_sec",
	"agent":     "agent_name",
	"score":     "score",
	"sentiment": "sentiment",
}

func (s *Store) List(ctx context.Context, f calls.Filters) (calls.Page, error) {
	f = f.Normalize()
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[calls.DefaultSortBy]
	}
	direction := "DESC"
	if f.SortOrder == calls.SortAsc {
		direction = "ASC"
	}

	args := []any{}
	where := ""
	if search := strings.TrimSpace(f.Search); search != "" {
		where = `where agent_name ilike $1 or customer ilike $1 or transcript::text ilike $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := `select count(*) from calls ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return calls.Page{}, err
	}

	offset := (f.Page - 1) * f.PageSize
	query := fmt.Sprintf(`
		select id, call_date, agent_name, customer, project_id, team_id,
		       duration_sec, score, sentiment, audio_url, transcript, scorecard
		from calls %s
		order by %s %s, id %s
		limit $%d offset $%d
	`, where, column, direction, direction, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return calls.Page{}, err
	}
	defer rows.Close()

	items := make([]calls.Call, 0, f.PageSize)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return calls.Page{}, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return calls.Page{}, err
	}
	return calls.Page{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *Store) Get(ctx context.Context, id string) (calls.Call, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, call_date, agent_name, customer, project_id, team_id,
		       duration_sec, score, sentiment, audio_url, transcript, scorecard
		from calls where id=$1
	`, id)
	c, err := scanCall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return calls.Call{}, calls.ErrNotFound
	}
	if err != nil {
		return calls.Call{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c calls.Call) (calls.Call, error) {
	if strings.TrimSpace(c.AgentName) == "" {
		return calls.Call{}, fmt.Errorf("%w: agent name is required", calls.ErrInvalidInput)
	}
	if c.DurationSec < 0 {
		return calls.Call{}, fmt.Errorf("%w: duration must not be negative", calls.ErrInvalidInput)
	}
	c.ID = ids.New()
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	transcript, err := json.Marshal(c.Transcript)
	if err != nil {
		return calls.Call{}, err
	}
	scorecard, err := json.Marshal(c.Scorecard)
	if err != nil {
		return calls.Call{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into calls(id, call_date, agent_name, customer, project_id, team_id,
		                  duration_sec, score, sentiment, audio_url, transcript, scorecard)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, c.ID, c.Date, c.AgentName, c.Customer, nullable(c.ProjectID), nullable(c.TeamID),
		c.DurationSec, c.Score, nullable(c.Sentiment), nullable(c.AudioURL), transcript, scorecard)
	if err != nil {
		return calls.Call{}, err
	}
	return c, nil
}

func (s *Store) AttachAudio(ctx context.Context, id, audioURL string) (calls.Call, error) {
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return calls.Call{}, fmt.Errorf("%w: audio url is required", calls.ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx, `update calls set audio_url=$2 where id=$1`, id, audioURL)
	if err != nil {
		return calls.Call{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calls.Call{}, calls.ErrNotFound
	}
	return s.Get(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (calls.Call, error) {
	var (
		c          calls.Call
		projectID  sql.NullString
		teamID     sql.NullString
		sentiment  sql.NullString
		audioURL   sql.NullString
		transcript []byte
		scorecard  []byte
	)
	err := row.Scan(&c.ID, &c.Date, &c.AgentName, &c.Customer, &projectID, &teamID,
		&c.DurationSec, &c.Score, &sentiment, &audioURL, &transcript, &scorecard)
	if err != nil {
		return calls.Call{}, err
	}
	c.ProjectID = projectID.String
	c.TeamID = teamID.String
	c.Sentiment = sentiment.String
	c.AudioURL = audioURL.String
	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &c.Transcript); err != nil {
			return calls.Call{}, fmt.Errorf("decode transcript for call %s: %w", c.ID, err)
		}
	}
	if len(scorecard) > 0 {
		if err := json.Unmarshal(scorecard, &c.Scorecard); err != nil {
			return calls.Call{}, fmt.Errorf("decode scorecard for call %s: %w", c.ID, err)
		}
	}
	return c, nil
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
