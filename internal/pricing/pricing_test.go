package pricing

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func ptr[T any](v T) *T { return &v }

func TestCalculateQuote_SinglePLAPrint(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:      PLAStandard,
		Grams:         125,
		Quantity:      1,
		DeliverySpeed: DeliveryStandard,
	})

	b := result.Breakdown
	nearlyEqual(t, "platformFee", b.PlatformFee, 5)
	nearlyEqual(t, "bedRental", b.BedRental, 10)
	nearlyEqual(t, "filamentCost", b.FilamentCost, 11.25)
	nearlyEqual(t, "subtotal", b.Subtotal, 26.25)
	nearlyEqual(t, "minimumAdjustment", b.MinimumAdjustment, 0)
	nearlyEqual(t, "total", b.Total, 26.25)
	if b.TotalCredits != 263 {
		t.Fatalf("totalCredits = %d, want 263", b.TotalCredits)
	}
	nearlyEqual(t, "estimatedPrintTimeHours", result.EstimatedPrintTimeHours, 125*3.5/60)

	nearlyEqual(t, "payout bedRental", result.MakerPayout.BedRental, 10)
	nearlyEqual(t, "payout materialShare", result.MakerPayout.MaterialShare, 7.5)
	nearlyEqual(t, "payout total", result.MakerPayout.Total, 17.5)
}

func TestCalculateQuote_MakerPayoutWithoutPostProcessing(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:      PLAStandard,
		Grams:         100,
		Quantity:      1,
		DeliverySpeed: DeliveryStandard,
	})

	p := result.MakerPayout
	nearlyEqual(t, "bedRental", p.BedRental, 10)
	nearlyEqual(t, "materialShare", p.MaterialShare, 6)
	nearlyEqual(t, "postProcessingShare", p.PostProcessingShare, 0)
	nearlyEqual(t, "total", p.Total, 16)
}

func TestCalculateQuote_SmallPrintHitsMinimumOrder(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:      PLAStandard,
		Grams:         20,
		Quantity:      1,
		DeliverySpeed: DeliveryStandard,
	})

	b := result.Breakdown
	nearlyEqual(t, "subtotal", b.Subtotal, 16.8)
	nearlyEqual(t, "minimumAdjustment", b.MinimumAdjustment, 1.2)
	nearlyEqual(t, "total", b.Total, MinimumOrderTotal)
	if b.TotalCredits != 180 {
		t.Fatalf("totalCredits = %d, want 180", b.TotalCredits)
	}
}

func TestCalculateQuote_MinimumFloorHolds(t *testing.T) {
	for _, grams := range []float64{1, 5, 10, 20, 30, 33} {
		result := CalculateQuote(QuoteCalculationInput{
			Material:      PLAStandard,
			Grams:         grams,
			Quantity:      1,
			DeliverySpeed: DeliveryStandard,
		})
		b := result.Breakdown
		if b.Subtotal >= MinimumOrderTotal {
			t.Fatalf("grams=%v: subtotal %v expected below minimum", grams, b.Subtotal)
		}
		nearlyEqual(t, "total", b.Total, MinimumOrderTotal)
		nearlyEqual(t, "minimumAdjustment", b.MinimumAdjustment, MinimumOrderTotal-b.Subtotal)
		nearlyEqual(t, "total identity", b.Total, b.Subtotal+b.MinimumAdjustment)
	}
}

func TestCalculateQuote_QuantityDiscountTenUnits(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:      PLAStandard,
		Grams:         100,
		Quantity:      10,
		DeliverySpeed: DeliveryStandard,
	})

	b := result.Breakdown
	nearlyEqual(t, "quantityDiscount", b.QuantityDiscount, 24)
	nearlyEqual(t, "subtotal", b.Subtotal, 216)
	nearlyEqual(t, "total", b.Total, 216)
}

func TestCalculateQuote_EmergencyUsesDefaultRushRate(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:      PLAStandard,
		Grams:         100,
		Quantity:      1,
		DeliverySpeed: DeliveryEmergency,
	})

	b := result.Breakdown
	nearlyEqual(t, "rushSurcharge", b.RushSurcharge, 19*0.15)
	nearlyEqual(t, "total", b.Total, 26.85)
}

func TestCalculateQuote_EmergencyWithExplicitRushRate(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:      PLAStandard,
		Grams:         100,
		Quantity:      1,
		DeliverySpeed: DeliveryEmergency,
		RushRate:      ptr(0.25),
	})

	nearlyEqual(t, "rushSurcharge", result.Breakdown.RushSurcharge, 4.75)
}

func TestCalculateQuote_RushRateIgnoredForStandardDelivery(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:      PLAStandard,
		Grams:         100,
		Quantity:      1,
		DeliverySpeed: DeliveryStandard,
		RushRate:      ptr(0.5),
	})

	nearlyEqual(t, "rushSurcharge", result.Breakdown.RushSurcharge, 0)
	nearlyEqual(t, "total", result.Breakdown.Total, 24)
}

func TestCalculateQuote_RushAppliesToDiscountedBase(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:      PLAStandard,
		Grams:         100,
		Quantity:      10,
		DeliverySpeed: DeliveryEmergency,
	})

	b := result.Breakdown
	// 10 units x (bed 10 + filament 9) = 190, less 10% = 171, rush 15% of that.
	nearlyEqual(t, "rushSurcharge", b.RushSurcharge, 25.65)
	nearlyEqual(t, "subtotal", b.Subtotal, 241.65)
	if math.Abs(b.RushSurcharge-190*0.15) < 1e-9 {
		t.Fatalf("rush surcharge computed on undiscounted base")
	}
}

func TestCalculateQuote_PlatformFeeImmunity(t *testing.T) {
	for _, speed := range []DeliverySpeed{DeliveryStandard, DeliveryEmergency} {
		for _, qty := range []int{1, 9, 10, 25, 50, 200} {
			result := CalculateQuote(QuoteCalculationInput{
				Material:      PETG,
				Grams:         80,
				Quantity:      qty,
				DeliverySpeed: speed,
			})
			nearlyEqual(t, "platformFee", result.Breakdown.PlatformFee, AdminFee)
		}
	}
}

func TestCalculateQuote_MakerPayoutIgnoresRushAndDiscount(t *testing.T) {
	base := QuoteCalculationInput{
		Material:       PETGCF,
		Grams:          240,
		Quantity:       1,
		DeliverySpeed:  DeliveryStandard,
		PostProcessing: &PostProcessing{Tier: PostProcessingStandard, Minutes: 45},
	}
	single := CalculateQuote(base).MakerPayout

	rush := base
	rush.DeliverySpeed = DeliveryEmergency
	nearlyEqual(t, "rush payout", CalculateQuote(rush).MakerPayout.Total, single.Total)

	bulk := base
	bulk.Quantity = 50
	bulkPayout := CalculateQuote(bulk).MakerPayout
	nearlyEqual(t, "bulk bedRental", bulkPayout.BedRental, single.BedRental*50)
	nearlyEqual(t, "bulk materialShare", bulkPayout.MaterialShare, single.MaterialShare*50)
	nearlyEqual(t, "bulk postProcessingShare", bulkPayout.PostProcessingShare, single.PostProcessingShare*50)
	nearlyEqual(t, "bulk total", bulkPayout.Total, single.Total*50)
	nearlyEqual(t, "bulk total sum", bulkPayout.Total,
		bulkPayout.BedRental+bulkPayout.MaterialShare+bulkPayout.PostProcessingShare)
}

func TestCalculateQuote_PostProcessing(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:       PLAStandard,
		Grams:          100,
		Quantity:       1,
		DeliverySpeed:  DeliveryStandard,
		PostProcessing: &PostProcessing{Tier: PostProcessingAdvanced, Minutes: 30},
	})

	nearlyEqual(t, "postProcessing", result.Breakdown.PostProcessing, 22.5)
	nearlyEqual(t, "total", result.Breakdown.Total, 46.5)
	nearlyEqual(t, "payout postProcessingShare", result.MakerPayout.PostProcessingShare, 15)
	nearlyEqual(t, "payout total", result.MakerPayout.Total, 31)
}

func TestCalculateQuote_ProvidedPrintTimeDrivesExtendedSurcharge(t *testing.T) {
	result := CalculateQuote(QuoteCalculationInput{
		Material:       PLAStandard,
		Grams:          100,
		Quantity:       1,
		PrintTimeHours: ptr(30.2),
		DeliverySpeed:  DeliveryStandard,
	})

	b := result.Breakdown
	nearlyEqual(t, "estimatedPrintTimeHours", result.EstimatedPrintTimeHours, 30.2)
	nearlyEqual(t, "bedRental", b.BedRental, 25)
	nearlyEqual(t, "extendedTimeSurcharge", b.ExtendedTimeSurcharge, 14)
	nearlyEqual(t, "total", b.Total, 5+25+9+14)
}

func TestCalculateQuote_CreditsFollowTotal(t *testing.T) {
	for _, grams := range []float64{20, 77, 125, 333, 900} {
		for _, qty := range []int{1, 3, 12, 60} {
			b := CalculateQuote(QuoteCalculationInput{
				Material:      TPU,
				Grams:         grams,
				Quantity:      qty,
				DeliverySpeed: DeliveryEmergency,
			}).Breakdown
			if b.TotalCredits != CADToCredits(b.Total) {
				t.Fatalf("grams=%v qty=%d: credits %d, want %d", grams, qty, b.TotalCredits, CADToCredits(b.Total))
			}
		}
	}
}

func TestGetBedRentalRate(t *testing.T) {
	tests := []struct {
		hours float64
		rate  float64
		label string
	}{
		{0, 10, "Quick print"},
		{2, 10, "Quick print"},
		{2.01, 10, "Standard print"},
		{8, 10, "Standard print"},
		{12, 15, "Long print"},
		{24, 20, "Overnight print"},
		{24.5, 25, "Multi-day print"},
		{500, 25, "Multi-day print"},
	}

	for _, tt := range tests {
		got := GetBedRentalRate(tt.hours)
		nearlyEqual(t, "rate", got.Rate, tt.rate)
		if got.Label != tt.label {
			t.Fatalf("hours=%v label = %q, want %q", tt.hours, got.Label, tt.label)
		}
	}
}

func TestGetBedRentalRate_NeverBelowFloor(t *testing.T) {
	for h := 0.0; h <= 100; h += 0.25 {
		if got := GetBedRentalRate(h).Rate; got < MinimumBedRental {
			t.Fatalf("hours=%v rate %v below floor", h, got)
		}
	}
}

func TestGetExtendedTimeSurcharge_CeilsPartialHours(t *testing.T) {
	nearlyEqual(t, "at threshold", GetExtendedTimeSurcharge(24), 0)
	nearlyEqual(t, "under threshold", GetExtendedTimeSurcharge(3), 0)
	nearlyEqual(t, "just over", GetExtendedTimeSurcharge(24.01), 2)
	nearlyEqual(t, "one hour", GetExtendedTimeSurcharge(25), 2)
	nearlyEqual(t, "one and a half", GetExtendedTimeSurcharge(25.5), 4)
}

func TestGetQuantityDiscount(t *testing.T) {
	tests := map[int]float64{
		1: 0, 9: 0, 10: 0.10, 24: 0.10, 25: 0.15, 49: 0.15, 50: 0.20, 1000: 0.20,
	}
	for qty, want := range tests {
		nearlyEqual(t, "discount", GetQuantityDiscount(qty), want)
	}

	prev := 0.0
	for qty := 1; qty <= 120; qty++ {
		got := GetQuantityDiscount(qty)
		if got < prev {
			t.Fatalf("discount decreased at qty=%d: %v < %v", qty, got, prev)
		}
		prev = got
	}
}

func TestQuantityDiscountTiersSortedAscending(t *testing.T) {
	tiers := QuantityDiscountTiers()
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MinQty <= tiers[i-1].MinQty {
			t.Fatalf("tier %d MinQty %d not above %d", i, tiers[i].MinQty, tiers[i-1].MinQty)
		}
	}
}

func TestBedRentalTiersEndUnbounded(t *testing.T) {
	tiers := BedRentalTiers()
	if !math.IsInf(tiers[len(tiers)-1].MaxHours, 1) {
		t.Fatalf("last bed rental tier must be unbounded")
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MaxHours <= tiers[i-1].MaxHours {
			t.Fatalf("bed rental tier %d out of order", i)
		}
	}
}

func TestMaterialRates_CustomerAboveMaker(t *testing.T) {
	for _, m := range Materials {
		rate, ok := Rate(m)
		if !ok {
			t.Fatalf("material %s has no rate", m)
		}
		if rate.CustomerRate <= rate.MakerRate {
			t.Fatalf("material %s customer rate %v not above maker rate %v", m, rate.CustomerRate, rate.MakerRate)
		}
	}
}

func TestGetPostProcessingCost(t *testing.T) {
	std := PostProcessingStandard

	none := GetPostProcessingCost(nil, 60)
	nearlyEqual(t, "nil tier customer", none.Customer, 0)

	zero := GetPostProcessingCost(&std, 0)
	nearlyEqual(t, "zero minutes customer", zero.Customer, 0)

	cost := GetPostProcessingCost(&std, 90)
	nearlyEqual(t, "customer", cost.Customer, 45)
	nearlyEqual(t, "maker", cost.Maker, 30)
}
