package pricing

import "math"

// CalculateWeightFromVolume converts a model volume to grams using the
// material density. The material must be known.
func CalculateWeightFromVolume(volumeCM3 float64, material MaterialType) float64 {
	return volumeCM3 * materialRates[material].Density
}

// EstimatePrintTime estimates print duration in hours from mass, never
// returning less than MinimumPrintTimeHours.
func EstimatePrintTime(grams float64) float64 {
	return math.Max(MinimumPrintTimeHours, grams*PrintTimeMinPerGram/60.0)
}

// CADToCredits converts CAD to platform credits, rounding half up.
func CADToCredits(cad float64) int64 {
	return int64(math.Floor(cad*CreditsPerCAD + 0.5))
}

// CreditsToCAD converts platform credits back to CAD.
func CreditsToCAD(credits int64) float64 {
	return float64(credits) / CreditsPerCAD
}

// MinimumGrams returns the smallest mass whose filament cost reaches
// minFilamentCost for material.
func MinimumGrams(material MaterialType, minFilamentCost float64) float64 {
	rate := materialRates[material].CustomerRate
	if rate <= 0 || minFilamentCost <= 0 {
		return 0
	}
	return minFilamentCost / rate
}
