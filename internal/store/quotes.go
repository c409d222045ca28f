// Package store keeps quote snapshots in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/makerquote/internal/apperr"
	"github.com/Simplici0/makerquote/internal/money"
	"github.com/Simplici0/makerquote/internal/pricing"
	"github.com/Simplici0/makerquote/internal/quote"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Quotes implements quote.Store on a *sql.DB.
type Quotes struct {
	db *sql.DB
}

// NewQuotes returns a quote store backed by db.
func NewQuotes(db *sql.DB) *Quotes {
	return &Quotes{db: db}
}

var _ quote.Store = (*Quotes)(nil)

// Insert stores a quote snapshot.
func (s *Quotes) Insert(ctx context.Context, q quote.Quote) error {
	inputJSON, err := json.Marshal(q.Request)
	if err != nil {
		return fmt.Errorf("encode quote request: %w", err)
	}
	breakdownJSON, err := json.Marshal(q.Result.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	payoutJSON, err := json.Marshal(q.Result.MakerPayout)
	if err != nil {
		return fmt.Errorf("encode maker payout: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (
			id, created_at, expires_at, title, notes, material, quality, quantity, grams,
			delivery_speed, print_time_hours, total, total_credits, input_json, breakdown_json, payout_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		q.ID,
		q.CreatedAt.UTC().Format(timeLayout),
		q.ExpiresAt.UTC().Format(timeLayout),
		q.Request.Title,
		q.Request.Notes,
		q.Request.Material,
		q.Request.Quality,
		q.Request.Quantity,
		q.Grams,
		q.Request.DeliverySpeed,
		q.Result.EstimatedPrintTimeHours,
		money.Round(q.Result.Breakdown.Total),
		q.Result.Breakdown.TotalCredits,
		string(inputJSON),
		string(breakdownJSON),
		string(payoutJSON),
	)
	if err != nil {
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// Get reads a quote snapshot by id.
func (s *Quotes) Get(ctx context.Context, id string) (quote.Quote, error) {
	var (
		q                                 quote.Quote
		createdAt, expiresAt              string
		inputJSON, breakdownJSON, payJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, expires_at, grams, print_time_hours, input_json, breakdown_json, payout_json
		FROM quotes
		WHERE id = ?
	`, id).Scan(&q.ID, &createdAt, &expiresAt, &q.Grams, &q.Result.EstimatedPrintTimeHours, &inputJSON, &breakdownJSON, &payJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return quote.Quote{}, apperr.NotFound("quote", id)
	}
	if err != nil {
		return quote.Quote{}, fmt.Errorf("query quote: %w", err)
	}

	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return quote.Quote{}, err
	}
	if q.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return quote.Quote{}, err
	}
	if err := json.Unmarshal([]byte(inputJSON), &q.Request); err != nil {
		return quote.Quote{}, fmt.Errorf("decode quote request: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &q.Result.Breakdown); err != nil {
		return quote.Quote{}, fmt.Errorf("decode breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(payJSON), &q.Result.MakerPayout); err != nil {
		return quote.Quote{}, fmt.Errorf("decode maker payout: %w", err)
	}
	return q, nil
}

// List returns quotes newest first. A non-empty query filters by title or notes.
func (s *Quotes) List(ctx context.Context, query string) ([]quote.Summary, error) {
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, expires_at, COALESCE(title, ''), material, quantity, total
		FROM quotes
		WHERE (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY created_at DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	items := make([]quote.Summary, 0)
	for rows.Next() {
		var (
			item                 quote.Summary
			createdAt, expiresAt string
		)
		if err := rows.Scan(&item.ID, &createdAt, &expiresAt, &item.Title, &item.Material, &item.Quantity, &item.Total); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if item.ExpiresAt, err = parseTime(expiresAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return items, nil
}

// Materials lists the active material codes mirrored by the seed.
func (s *Quotes) Materials(ctx context.Context) ([]pricing.MaterialType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code FROM materials WHERE active ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	var out []pricing.MaterialType
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, pricing.MaterialType(code))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return out, nil
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
