package quote

import (
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/makerquote/internal/money"
	"github.com/Simplici0/makerquote/internal/pricing"
)

// RenderText formats a quote as plain text for email or chat.
func RenderText(q Quote, now time.Time) string {
	b := q.Result.Breakdown
	p := q.Result.MakerPayout

	var sb strings.Builder
	title := q.Request.Title
	if title == "" {
		title = "Print quote"
	}
	fmt.Fprintf(&sb, "%s (%s)\n", title, q.ID)
	fmt.Fprintf(&sb, "Created: %s\n", q.CreatedAt.Format(time.RFC3339))
	status := "valid until"
	if q.Expired(now) {
		status = "expired on"
	}
	fmt.Fprintf(&sb, "Status: %s %s\n\n", status, q.ExpiresAt.Format(time.RFC3339))

	sb.WriteString("Job:\n")
	fmt.Fprintf(&sb, "- Material: %s\n", q.Request.Material)
	fmt.Fprintf(&sb, "- Quality: %s\n", q.Request.Quality)
	fmt.Fprintf(&sb, "- Weight: %.1f g\n", q.Grams)
	fmt.Fprintf(&sb, "- Quantity: %d\n", q.Request.Quantity)
	fmt.Fprintf(&sb, "- Delivery: %s\n", q.Request.DeliverySpeed)
	fmt.Fprintf(&sb, "- Estimated print time: %.1f h\n\n", q.Result.EstimatedPrintTimeHours)

	sb.WriteString("Price (CAD, per unit before quantity):\n")
	line := func(label string, v float64) {
		fmt.Fprintf(&sb, "- %s: %s\n", label, money.Format(v))
	}
	line("Platform fee", b.PlatformFee)
	line("Bed rental", b.BedRental)
	line("Filament", b.FilamentCost)
	if b.PostProcessing > 0 {
		line("Post-processing", b.PostProcessing)
	}
	if b.ExtendedTimeSurcharge > 0 {
		line("Extended time", b.ExtendedTimeSurcharge)
	}

	sb.WriteString("\nOrder:\n")
	if b.QuantityDiscount > 0 {
		line("Quantity discount", -b.QuantityDiscount)
	}
	if b.RushSurcharge > 0 {
		line("Rush surcharge", b.RushSurcharge)
	}
	line("Subtotal", b.Subtotal)
	if b.MinimumAdjustment > 0 {
		line("Minimum order adjustment", b.MinimumAdjustment)
	}
	fmt.Fprintf(&sb, "\nTotal: %s CAD (%d credits)\n", money.Format(b.Total), b.TotalCredits)
	fmt.Fprintf(&sb, "Credit value: %s CAD\n", money.Format(pricing.CreditsToCAD(b.TotalCredits)))
	fmt.Fprintf(&sb, "Maker payout: %s CAD\n", money.Format(p.Total))

	if q.Request.Notes != "" {
		fmt.Fprintf(&sb, "\nNotes: %s\n", q.Request.Notes)
	}
	return sb.String()
}
