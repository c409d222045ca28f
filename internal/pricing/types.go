package pricing

// MaterialType identifies a filament family with its own rate record.
type MaterialType string

const (
	PLAStandard  MaterialType = "PLA_STANDARD"
	PLASpecialty MaterialType = "PLA_SPECIALTY"
	PETG         MaterialType = "PETG"
	PETGCF       MaterialType = "PETG_CF"
	TPU          MaterialType = "TPU"
	ABSASA       MaterialType = "ABS_ASA"
)

// Materials lists every material in catalog order.
var Materials = []MaterialType{PLAStandard, PLASpecialty, PETG, PETGCF, TPU, ABSASA}

// Valid reports whether m has a rate record.
func (m MaterialType) Valid() bool {
	_, ok := materialRates[m]
	return ok
}

// DeliverySpeed selects standard or rush fulfillment.
type DeliverySpeed string

const (
	DeliveryStandard  DeliverySpeed = "standard"
	DeliveryEmergency DeliverySpeed = "emergency"
)

// PostProcessingTier selects a post-processing labor rate.
type PostProcessingTier string

const (
	PostProcessingStandard PostProcessingTier = "standard"
	PostProcessingAdvanced PostProcessingTier = "advanced"
)

// PostProcessing describes finishing work billed by the minute.
type PostProcessing struct {
	Tier    PostProcessingTier `json:"tier"`
	Minutes float64            `json:"minutes"`
}

// QuoteCalculationInput represents the physical parameters of a print job.
// Callers validate it before calling CalculateQuote.
type QuoteCalculationInput struct {
	Material       MaterialType
	Grams          float64
	Quantity       int
	PrintTimeHours *float64 // estimated from Grams when nil
	DeliverySpeed  DeliverySpeed
	RushRate       *float64 // DefaultRushRate when nil; ignored unless emergency
	PostProcessing *PostProcessing
}

// PriceBreakdown contains every customer-facing line item of a quote.
type PriceBreakdown struct {
	PlatformFee           float64 `json:"platform_fee"`
	BedRental             float64 `json:"bed_rental"`
	FilamentCost          float64 `json:"filament_cost"`
	PostProcessing        float64 `json:"post_processing"`
	ExtendedTimeSurcharge float64 `json:"extended_time_surcharge"`
	RushSurcharge         float64 `json:"rush_surcharge"`
	QuantityDiscount      float64 `json:"quantity_discount"`
	Subtotal              float64 `json:"subtotal"`
	MinimumAdjustment     float64 `json:"minimum_adjustment"`
	Total                 float64 `json:"total"`
	TotalCredits          int64   `json:"total_credits"`
}

// MakerPayout is the amount owed to the fulfilling maker.
type MakerPayout struct {
	BedRental           float64 `json:"bed_rental"`
	MaterialShare       float64 `json:"material_share"`
	PostProcessingShare float64 `json:"post_processing_share"`
	Total               float64 `json:"total"`
}

// QuoteResult groups the full engine output.
type QuoteResult struct {
	Breakdown               PriceBreakdown `json:"breakdown"`
	MakerPayout             MakerPayout    `json:"maker_payout"`
	EstimatedPrintTimeHours float64        `json:"estimated_print_time_hours"`
}

// CostSplit is a cost on the customer and maker rate tracks.
type CostSplit struct {
	Customer float64
	Maker    float64
}

// BedRental is the selected bed rental rate and its tier label.
type BedRental struct {
	Rate  float64
	Label string
}
