package pricing

import "math"

const (
	// AdminFee is the flat platform fee charged once per unit. It is never
	// discounted and never rush-surcharged.
	AdminFee = 5.00
	// MinimumOrderTotal is the lowest total any quote can have.
	MinimumOrderTotal = 18.00
	// MinimumBedRental floors whatever rate the bed rental tiers produce.
	MinimumBedRental = 10.00

	// PrintTimeMinPerGram calibrates print time estimates from mass.
	PrintTimeMinPerGram   = 3.5
	MinimumPrintTimeHours = 0.5

	ExtendedTimeThresholdHours = 24.0
	ExtendedTimeHourlyRate     = 2.00

	DefaultRushRate = 0.15

	// CreditsPerCAD is shared with the rest of the platform's credit economy.
	CreditsPerCAD = 10
)

// MaterialRate holds the per-gram rates and density of a filament.
type MaterialRate struct {
	CustomerRate float64 // CAD per gram
	MakerRate    float64 // CAD per gram
	Density      float64 // g/cm³
}

var materialRates = map[MaterialType]MaterialRate{
	PLAStandard:  {CustomerRate: 0.09, MakerRate: 0.06, Density: 1.24},
	PLASpecialty: {CustomerRate: 0.12, MakerRate: 0.08, Density: 1.24},
	PETG:         {CustomerRate: 0.10, MakerRate: 0.07, Density: 1.27},
	PETGCF:       {CustomerRate: 0.16, MakerRate: 0.11, Density: 1.30},
	TPU:          {CustomerRate: 0.15, MakerRate: 0.10, Density: 1.21},
	ABSASA:       {CustomerRate: 0.11, MakerRate: 0.075, Density: 1.05},
}

// BedRentalTier prices print-bed reservation by duration.
type BedRentalTier struct {
	MaxHours float64
	Rate     float64
	Label    string
}

// bedRentalTiers is scanned in order; the first tier whose MaxHours covers
// the print time wins. The last tier must be unbounded.
var bedRentalTiers = []BedRentalTier{
	{MaxHours: 2, Rate: 8.00, Label: "Quick print"},
	{MaxHours: 8, Rate: 10.00, Label: "Standard print"},
	{MaxHours: 16, Rate: 15.00, Label: "Long print"},
	{MaxHours: 24, Rate: 20.00, Label: "Overnight print"},
	{MaxHours: math.Inf(1), Rate: 25.00, Label: "Multi-day print"},
}

// QuantityDiscountTier grants Discount once the quantity reaches MinQty.
type QuantityDiscountTier struct {
	MinQty   int
	Discount float64
}

// quantityDiscountTiers must stay sorted ascending by MinQty.
var quantityDiscountTiers = []QuantityDiscountTier{
	{MinQty: 10, Discount: 0.10},
	{MinQty: 25, Discount: 0.15},
	{MinQty: 50, Discount: 0.20},
}

// PostProcessingRate is an hourly labor rate on both tracks.
type PostProcessingRate struct {
	CustomerHourly float64
	MakerHourly    float64
}

var postProcessingRates = map[PostProcessingTier]PostProcessingRate{
	PostProcessingStandard: {CustomerHourly: 30.00, MakerHourly: 20.00},
	PostProcessingAdvanced: {CustomerHourly: 45.00, MakerHourly: 30.00},
}

// Rate returns the rate record for a material and whether it is known.
func Rate(m MaterialType) (MaterialRate, bool) {
	r, ok := materialRates[m]
	return r, ok
}

// BedRentalTiers returns a copy of the bed rental table.
func BedRentalTiers() []BedRentalTier {
	out := make([]BedRentalTier, len(bedRentalTiers))
	copy(out, bedRentalTiers)
	return out
}

// QuantityDiscountTiers returns a copy of the quantity discount table.
func QuantityDiscountTiers() []QuantityDiscountTier {
	out := make([]QuantityDiscountTier, len(quantityDiscountTiers))
	copy(out, quantityDiscountTiers)
	return out
}
