package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Simplici0/makerquote/internal/apperr"
	"github.com/Simplici0/makerquote/internal/metrics"
	"github.com/Simplici0/makerquote/internal/money"
	"github.com/Simplici0/makerquote/internal/pricing"
	"github.com/Simplici0/makerquote/internal/quote"
)

const maxBodyBytes = 1 << 20

type materialCatalog interface {
	Materials(ctx context.Context) ([]pricing.MaterialType, error)
}

type server struct {
	quotes      *quote.Service
	materials   materialCatalog
	metrics     *metrics.Collector
	logger      *zap.Logger
	corsOrigins []string
}

type breakdownView struct {
	PlatformFee           decimal.Decimal `json:"platform_fee"`
	BedRental             decimal.Decimal `json:"bed_rental"`
	FilamentCost          decimal.Decimal `json:"filament_cost"`
	PostProcessing        decimal.Decimal `json:"post_processing"`
	ExtendedTimeSurcharge decimal.Decimal `json:"extended_time_surcharge"`
	RushSurcharge         decimal.Decimal `json:"rush_surcharge"`
	QuantityDiscount      decimal.Decimal `json:"quantity_discount"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	MinimumAdjustment     decimal.Decimal `json:"minimum_adjustment"`
	Total                 decimal.Decimal `json:"total"`
	TotalCredits          int64           `json:"total_credits"`
}

type payoutView struct {
	BedRental           decimal.Decimal `json:"bed_rental"`
	MaterialShare       decimal.Decimal `json:"material_share"`
	PostProcessingShare decimal.Decimal `json:"post_processing_share"`
	Total               decimal.Decimal `json:"total"`
}

type resultView struct {
	Breakdown               breakdownView `json:"breakdown"`
	MakerPayout             payoutView    `json:"maker_payout"`
	EstimatedPrintTimeHours float64       `json:"estimated_print_time_hours"`
}

type quoteView struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
	Expired   bool               `json:"expired"`
	Grams     float64            `json:"grams"`
	Request   quote.QuoteRequest `json:"request"`
	resultView
}

type materialView struct {
	Code         pricing.MaterialType `json:"code"`
	CustomerRate float64              `json:"customer_rate"`
	Density      float64              `json:"density"`
	MinimumGrams float64              `json:"minimum_grams"`
}

type bedTierView struct {
	MaxHours *float64 `json:"max_hours"`
	Rate     float64  `json:"rate"`
	Label    string   `json:"label"`
}

type ratesView struct {
	Materials             []materialView                 `json:"materials"`
	BedRentalTiers        []bedTierView                  `json:"bed_rental_tiers"`
	QuantityDiscountTiers []pricing.QuantityDiscountTier `json:"quantity_discount_tiers"`
	PlatformFee           float64                        `json:"platform_fee"`
	MinimumOrderTotal     float64                        `json:"minimum_order_total"`
	DefaultRushRate       float64                        `json:"default_rush_rate"`
	MaxQuantity           int                            `json:"max_quantity"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Location"},
			MaxAge:         300,
		}))

		r.Get("/materials", s.handleMaterials)
		r.Post("/quotes/preview", s.handleQuotePreview)
		r.Post("/quotes", s.handleQuoteCreate)
		r.Get("/quotes", s.handleQuotesList)
		r.Get("/quotes/{id}", s.handleQuoteDetail)
		r.Get("/quotes/{id}/text", s.handleQuoteText)
		r.Get("/quotes/{id}/payout", s.handleQuotePayout)
		r.Post("/quotes/{id}/accept", s.handleQuoteAccept)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	codes, err := s.materials.Materials(r.Context())
	if err != nil {
		s.writeError(w, apperr.Internal("load materials", err))
		return
	}

	policy := s.quotes.Policy()
	view := ratesView{
		Materials:             make([]materialView, 0, len(codes)),
		QuantityDiscountTiers: pricing.QuantityDiscountTiers(),
		PlatformFee:           pricing.AdminFee,
		MinimumOrderTotal:     pricing.MinimumOrderTotal,
		DefaultRushRate:       pricing.DefaultRushRate,
		MaxQuantity:           policy.MaxQuantity,
	}
	for _, code := range codes {
		rate, ok := pricing.Rate(code)
		if !ok {
			continue
		}
		view.Materials = append(view.Materials, materialView{
			Code:         code,
			CustomerRate: rate.CustomerRate,
			Density:      rate.Density,
			MinimumGrams: math.Ceil(pricing.MinimumGrams(code, policy.MinFilamentCost)),
		})
	}
	for _, tier := range pricing.BedRentalTiers() {
		tv := bedTierView{Rate: math.Max(tier.Rate, pricing.MinimumBedRental), Label: tier.Label}
		if !math.IsInf(tier.MaxHours, 1) {
			h := tier.MaxHours
			tv.MaxHours = &h
		}
		view.BedRentalTiers = append(view.BedRentalTiers, tv)
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQuoteRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.quotes.Preview(req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newResultView(result))
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeQuoteRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	q, err := s.quotes.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/quotes/"+q.ID)
	writeJSON(w, http.StatusCreated, s.newQuoteView(q))
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	items, err := s.quotes.List(r.Context(), query)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":  query,
		"quotes": items,
	})
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.newQuoteView(q))
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, quote.RenderText(q, s.quotes.Now()))
}

func (s *server) handleQuotePayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	payout, err := s.quotes.Payout(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"quote_id":     id,
		"maker_payout": newPayoutView(payout),
	})
}

func (s *server) handleQuoteAccept(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Accept(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.newQuoteView(q))
}

func decodeQuoteRequest(r *http.Request) (quote.QuoteRequest, error) {
	var req quote.QuoteRequest
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return req, apperr.Invalid(typeErr.Field, "%s has the wrong type", typeErr.Field)
		}
		return req, apperr.Invalid("", "invalid JSON body: %v", err)
	}
	return req, nil
}

func (s *server) newQuoteView(q quote.Quote) quoteView {
	return quoteView{
		ID:         q.ID,
		CreatedAt:  q.CreatedAt,
		ExpiresAt:  q.ExpiresAt,
		Expired:    q.Expired(s.quotes.Now()),
		Grams:      q.Grams,
		Request:    q.Request,
		resultView: newResultView(q.Result),
	}
}

func newResultView(res pricing.QuoteResult) resultView {
	b := res.Breakdown
	return resultView{
		Breakdown: breakdownView{
			PlatformFee:           money.Cents(b.PlatformFee),
			BedRental:             money.Cents(b.BedRental),
			FilamentCost:          money.Cents(b.FilamentCost),
			PostProcessing:        money.Cents(b.PostProcessing),
			ExtendedTimeSurcharge: money.Cents(b.ExtendedTimeSurcharge),
			RushSurcharge:         money.Cents(b.RushSurcharge),
			QuantityDiscount:      money.Cents(b.QuantityDiscount),
			Subtotal:              money.Cents(b.Subtotal),
			MinimumAdjustment:     money.Cents(b.MinimumAdjustment),
			Total:                 money.Cents(b.Total),
			TotalCredits:          b.TotalCredits,
		},
		MakerPayout:             newPayoutView(res.MakerPayout),
		EstimatedPrintTimeHours: res.EstimatedPrintTimeHours,
	}
}

func newPayoutView(p pricing.MakerPayout) payoutView {
	return payoutView{
		BedRental:           money.Cents(p.BedRental),
		MaterialShare:       money.Cents(p.MaterialShare),
		PostProcessingShare: money.Cents(p.PostProcessingShare),
		Total:               money.Cents(p.Total),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal("unexpected error", err)
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case apperr.KindInvalidInput:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindExpired:
		status = http.StatusGone
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		// Internal causes stay in the logs.
		e = &apperr.Error{Kind: apperr.KindInternal, Message: e.Message}
	}

	writeJSON(w, status, map[string]*apperr.Error{"error": e})
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
