package quote

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Simplici0/makerquote/internal/apperr"
	"github.com/Simplici0/makerquote/internal/pricing"
)

// QuoteRequest is the JSON body of a quote request.
type QuoteRequest struct {
	Material       string                 `json:"material" validate:"required"`
	Quality        string                 `json:"quality" validate:"required,oneof=draft standard fine"`
	Quantity       int                    `json:"quantity" validate:"required"`
	DeliverySpeed  string                 `json:"delivery_speed" validate:"required,oneof=standard emergency"`
	Grams          *float64               `json:"grams,omitempty" validate:"omitempty,gt=0"`
	FileMetadata   *FileMetadata          `json:"file_metadata,omitempty"`
	PrintTimeHours *float64               `json:"print_time_hours,omitempty" validate:"omitempty,gt=0"`
	RushRate       *float64               `json:"rush_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	PostProcessing *PostProcessingRequest `json:"post_processing,omitempty"`
	Title          string                 `json:"title,omitempty" validate:"max=200"`
	Notes          string                 `json:"notes,omitempty" validate:"max=2000"`
}

// FileMetadata describes the uploaded model. Only the volume is priced.
type FileMetadata struct {
	Filename  string  `json:"filename,omitempty"`
	VolumeCM3 float64 `json:"volume_cm3" validate:"gt=0"`
}

// PostProcessingRequest asks for finishing work.
type PostProcessingRequest struct {
	Tier    string  `json:"tier" validate:"required,oneof=standard advanced"`
	Minutes float64 `json:"minutes" validate:"gte=0"`
}

// Policy holds the cross-field rules the request layer enforces before a
// request reaches the engine.
// A zero maximum leaves that dimension unbounded.
type Policy struct {
	MinFilamentCost          float64
	MaxQuantity              int
	MaxGrams                 float64
	MaxPrintHours            float64
	MaxPostProcessingMinutes float64
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks req and resolves it into engine input. Every rejection is
// an apperr INVALID_INPUT naming the offending field.
func (p Policy) Validate(req QuoteRequest) (pricing.QuoteCalculationInput, error) {
	if err := validate.Struct(req); err != nil {
		return pricing.QuoteCalculationInput{}, fromValidationError(err)
	}

	material := pricing.MaterialType(req.Material)
	if !material.Valid() {
		return pricing.QuoteCalculationInput{}, apperr.Invalid("material", "unknown material %q", req.Material)
	}

	if req.Quantity < 1 {
		return pricing.QuoteCalculationInput{}, apperr.Invalid("quantity", "quantity must be at least 1")
	}
	if p.MaxQuantity > 0 && req.Quantity > p.MaxQuantity {
		return pricing.QuoteCalculationInput{}, apperr.Invalid("quantity", "quantity must be between 1 and %d", p.MaxQuantity)
	}

	var grams float64
	massField := "grams"
	switch {
	case req.Grams != nil:
		grams = *req.Grams
	case req.FileMetadata != nil:
		grams = pricing.CalculateWeightFromVolume(req.FileMetadata.VolumeCM3, material)
		massField = "file_metadata.volume_cm3"
	default:
		return pricing.QuoteCalculationInput{}, apperr.Invalid("grams", "either grams or file_metadata.volume_cm3 is required")
	}

	if !positiveFinite(grams) {
		return pricing.QuoteCalculationInput{}, apperr.Invalid(massField, "%s must be a positive number", massField)
	}
	if p.MaxGrams > 0 && grams > p.MaxGrams {
		return pricing.QuoteCalculationInput{}, apperr.Invalid(massField, "print mass must be at most %g g, got %.1f g", p.MaxGrams, grams)
	}
	if h := req.PrintTimeHours; h != nil {
		if !positiveFinite(*h) {
			return pricing.QuoteCalculationInput{}, apperr.Invalid("print_time_hours", "print_time_hours must be a positive number")
		}
		if p.MaxPrintHours > 0 && *h > p.MaxPrintHours {
			return pricing.QuoteCalculationInput{}, apperr.Invalid("print_time_hours", "print_time_hours must be at most %g", p.MaxPrintHours)
		}
	}
	if pp := req.PostProcessing; pp != nil {
		if math.IsInf(pp.Minutes, 0) || math.IsNaN(pp.Minutes) {
			return pricing.QuoteCalculationInput{}, apperr.Invalid("post_processing.minutes", "post_processing.minutes must be a number")
		}
		if p.MaxPostProcessingMinutes > 0 && pp.Minutes > p.MaxPostProcessingMinutes {
			return pricing.QuoteCalculationInput{}, apperr.Invalid("post_processing.minutes",
				"post_processing.minutes must be at most %g", p.MaxPostProcessingMinutes)
		}
	}

	if cost := pricing.GetMaterialCost(material, grams).Customer; cost < p.MinFilamentCost {
		return pricing.QuoteCalculationInput{}, apperr.Invalid("grams",
			"%s needs at least %.1f g to reach the %.2f CAD minimum filament cost",
			material, pricing.MinimumGrams(material, p.MinFilamentCost), p.MinFilamentCost)
	}

	input := pricing.QuoteCalculationInput{
		Material:       material,
		Grams:          grams,
		Quantity:       req.Quantity,
		PrintTimeHours: req.PrintTimeHours,
		DeliverySpeed:  pricing.DeliverySpeed(req.DeliverySpeed),
	}
	if input.DeliverySpeed == pricing.DeliveryEmergency {
		input.RushRate = req.RushRate
	}
	if pp := req.PostProcessing; pp != nil {
		input.PostProcessing = &pricing.PostProcessing{
			Tier:    pricing.PostProcessingTier(pp.Tier),
			Minutes: pp.Minutes,
		}
	}

	return input, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func fromValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Invalid("", "invalid request: %v", err)
	}

	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "oneof":
		msg = fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt":
		msg = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		msg = fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return &apperr.Error{Kind: apperr.KindInvalidInput, Field: field, Message: msg}
}
