// Package quote validates quote requests, prices them with the pricing
// engine and keeps the resulting snapshots.
package quote

import (
	"time"

	"github.com/Simplici0/makerquote/internal/pricing"
)

// Quote is a priced request snapshot. Reading it never recalculates.
type Quote struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	Request   QuoteRequest `json:"request"`
	// Grams is the priced mass, resolved from the volume when needed.
	Grams  float64             `json:"grams"`
	Result pricing.QuoteResult `json:"result"`
}

// Expired reports whether the quote is past its validity window at now.
func (q Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// Summary is a quote list entry.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Title     string    `json:"title"`
	Material  string    `json:"material"`
	Quantity  int       `json:"quantity"`
	Total     float64   `json:"total"`
}
