package quote

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/makerquote/internal/apperr"
	"github.com/Simplici0/makerquote/internal/metrics"
	"github.com/Simplici0/makerquote/internal/pricing"
)

// maxAmountCAD bounds any priced amount; beyond it credits overflow int64.
const maxAmountCAD = 1e15

// Store persists quote snapshots.
type Store interface {
	Insert(ctx context.Context, q Quote) error
	Get(ctx context.Context, id string) (Quote, error)
	List(ctx context.Context, query string) ([]Summary, error)
}

// Service is the request-handling layer around the pricing engine.
type Service struct {
	store   Store
	policy  Policy
	ttl     time.Duration
	metrics *metrics.Collector
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires a Service. Quotes expire ttl after creation.
func NewService(store Store, policy Policy, ttl time.Duration, m *metrics.Collector, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		policy:  policy,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Policy returns the validation policy in force.
func (s *Service) Policy() Policy {
	return s.policy
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Preview validates and prices req without persisting anything.
func (s *Service) Preview(req QuoteRequest) (pricing.QuoteResult, error) {
	input, err := s.validate(req)
	if err != nil {
		return pricing.QuoteResult{}, err
	}
	result, err := s.price(input)
	if err != nil {
		return pricing.QuoteResult{}, err
	}
	s.recordQuote(input, result)
	return result, nil
}

// Create validates, prices and stores req.
func (s *Service) Create(ctx context.Context, req QuoteRequest) (Quote, error) {
	input, err := s.validate(req)
	if err != nil {
		return Quote{}, err
	}

	result, err := s.price(input)
	if err != nil {
		return Quote{}, err
	}

	now := s.now().UTC()
	q := Quote{
		ID:        s.newID(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Request:   req,
		Grams:     input.Grams,
		Result:    result,
	}

	if err := s.store.Insert(ctx, q); err != nil {
		return Quote{}, apperr.Internal("persist quote", err)
	}
	s.recordQuote(input, result)

	s.logger.Info("quote created",
		zap.String("id", q.ID),
		zap.String("material", req.Material),
		zap.Int("quantity", req.Quantity),
		zap.Float64("total", q.Result.Breakdown.Total),
	)
	return q, nil
}

// Get returns a stored quote.
func (s *Service) Get(ctx context.Context, id string) (Quote, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Quote{}, apperr.NotFound("quote", id)
	}
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return Quote{}, fmt.Errorf("get quote %s: %w", id, err)
	}
	return q, nil
}

// List returns stored quotes newest first, filtered by title or notes.
func (s *Service) List(ctx context.Context, query string) ([]Summary, error) {
	items, err := s.store.List(ctx, query)
	if err != nil {
		return nil, apperr.Internal("list quotes", err)
	}
	return items, nil
}

// Accept returns a quote that is still within its validity window.
// Expired quotes are refused with an EXPIRED error.
func (s *Service) Accept(ctx context.Context, id string) (Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	if q.Expired(s.now()) {
		return Quote{}, apperr.Expired("quote", id)
	}
	s.logger.Info("quote accepted", zap.String("id", id), zap.Float64("total", q.Result.Breakdown.Total))
	return q, nil
}

// Payout returns the maker payout recorded for a quote.
func (s *Service) Payout(ctx context.Context, id string) (pricing.MakerPayout, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return pricing.MakerPayout{}, err
	}
	return q.Result.MakerPayout, nil
}

func (s *Service) validate(req QuoteRequest) (pricing.QuoteCalculationInput, error) {
	input, err := s.policy.Validate(req)
	if err != nil {
		reason := "invalid"
		if e, ok := apperr.As(err); ok && e.Field != "" {
			reason = e.Field
		}
		s.metrics.RecordRejection(reason)
		s.logger.Info("quote request rejected", zap.String("reason", reason), zap.Error(err))
		return pricing.QuoteCalculationInput{}, err
	}
	return input, nil
}

func (s *Service) price(input pricing.QuoteCalculationInput) (pricing.QuoteResult, error) {
	result, err := Price(input)
	if err != nil {
		s.metrics.RecordRejection("out_of_range")
		s.logger.Info("quote request rejected", zap.String("reason", "out_of_range"), zap.Error(err))
		return pricing.QuoteResult{}, err
	}
	return result, nil
}

func (s *Service) recordQuote(input pricing.QuoteCalculationInput, result pricing.QuoteResult) {
	s.metrics.RecordQuote(string(input.Material), string(input.DeliverySpeed), result.Breakdown.Total)
}

// Price runs the engine on validated input and rejects results that cannot
// be stored or displayed as money.
func Price(input pricing.QuoteCalculationInput) (pricing.QuoteResult, error) {
	result := pricing.CalculateQuote(input)
	b, p := result.Breakdown, result.MakerPayout
	for _, v := range []float64{b.Subtotal, b.Total, b.RushSurcharge, b.QuantityDiscount, p.Total} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxAmountCAD {
			return pricing.QuoteResult{}, apperr.Invalid("", "quote total is out of range")
		}
	}
	return result, nil
}
