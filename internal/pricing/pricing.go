package pricing

import "math"

// GetBedRentalRate returns the rate of the first tier covering printTimeHours,
// floored at MinimumBedRental.
func GetBedRentalRate(printTimeHours float64) BedRental {
	for _, tier := range bedRentalTiers {
		if printTimeHours <= tier.MaxHours {
			return BedRental{Rate: math.Max(tier.Rate, MinimumBedRental), Label: tier.Label}
		}
	}
	// Unreachable while the last tier is unbounded.
	last := bedRentalTiers[len(bedRentalTiers)-1]
	return BedRental{Rate: math.Max(last.Rate, MinimumBedRental), Label: last.Label}
}

// GetExtendedTimeSurcharge bills every started hour past the threshold.
func GetExtendedTimeSurcharge(printTimeHours float64) float64 {
	if printTimeHours <= ExtendedTimeThresholdHours {
		return 0
	}
	return math.Ceil(printTimeHours-ExtendedTimeThresholdHours) * ExtendedTimeHourlyRate
}

// GetQuantityDiscount returns the discount rate of the highest tier qty
// qualifies for. Tiers do not stack.
func GetQuantityDiscount(qty int) float64 {
	discount := 0.0
	for _, tier := range quantityDiscountTiers {
		if qty >= tier.MinQty {
			discount = tier.Discount
		}
	}
	return discount
}

// GetMaterialCost prices grams of material on both rate tracks.
func GetMaterialCost(material MaterialType, grams float64) CostSplit {
	rate := materialRates[material]
	return CostSplit{
		Customer: grams * rate.CustomerRate,
		Maker:    grams * rate.MakerRate,
	}
}

// GetPostProcessingCost prices finishing work. A nil tier or non-positive
// minutes cost nothing.
func GetPostProcessingCost(tier *PostProcessingTier, minutes float64) CostSplit {
	if tier == nil || minutes <= 0 {
		return CostSplit{}
	}
	rate := postProcessingRates[*tier]
	hours := minutes / 60.0
	return CostSplit{
		Customer: hours * rate.CustomerHourly,
		Maker:    hours * rate.MakerHourly,
	}
}

// CalculateQuote computes the customer breakdown and maker payout for input.
// The order of operations is significant: the platform fee stays out of the
// rush-eligible base, and the rush surcharge applies after the quantity
// discount.
func CalculateQuote(input QuoteCalculationInput) QuoteResult {
	printTimeHours := EstimatePrintTime(input.Grams)
	if input.PrintTimeHours != nil {
		printTimeHours = *input.PrintTimeHours
	}

	platformFee := AdminFee

	bedRental := GetBedRentalRate(printTimeHours)
	material := GetMaterialCost(input.Material, input.Grams)

	var postProcessing CostSplit
	if pp := input.PostProcessing; pp != nil {
		tier := pp.Tier
		postProcessing = GetPostProcessingCost(&tier, pp.Minutes)
	}

	extendedTime := GetExtendedTimeSurcharge(printTimeHours)

	rushEligible := 0.0
	rushEligible += bedRental.Rate
	rushEligible += material.Customer
	rushEligible += postProcessing.Customer
	rushEligible += extendedTime

	subtotal := platformFee + rushEligible

	qty := float64(input.Quantity)
	subtotal *= qty
	rushEligible *= qty

	discountRate := GetQuantityDiscount(input.Quantity)
	quantityDiscount := subtotal * discountRate
	subtotal -= quantityDiscount
	rushEligible *= 1 - discountRate

	rushSurcharge := 0.0
	if input.DeliverySpeed == DeliveryEmergency {
		rushRate := DefaultRushRate
		if input.RushRate != nil {
			rushRate = *input.RushRate
		}
		rushSurcharge = rushEligible * rushRate
		subtotal += rushSurcharge
	}

	minimumAdjustment := math.Max(0, MinimumOrderTotal-subtotal)
	total := subtotal + minimumAdjustment

	payout := MakerPayout{
		BedRental:           bedRental.Rate * qty,
		MaterialShare:       material.Maker * qty,
		PostProcessingShare: postProcessing.Maker * qty,
	}
	payout.Total = payout.BedRental + payout.MaterialShare + payout.PostProcessingShare

	return QuoteResult{
		Breakdown: PriceBreakdown{
			PlatformFee:           platformFee,
			BedRental:             bedRental.Rate,
			FilamentCost:          material.Customer,
			PostProcessing:        postProcessing.Customer,
			ExtendedTimeSurcharge: extendedTime,
			RushSurcharge:         rushSurcharge,
			QuantityDiscount:      quantityDiscount,
			Subtotal:              subtotal,
			MinimumAdjustment:     minimumAdjustment,
			Total:                 total,
			TotalCredits:          CADToCredits(total),
		},
		MakerPayout:             payout,
		EstimatedPrintTimeHours: printTimeHours,
	}
}
