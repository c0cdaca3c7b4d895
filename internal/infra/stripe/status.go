package stripe

import (
	"strings"

	"marketplace-app/internal/domain/purchases"
)

// NormalizePaymentStatus maps a Stripe checkout/payment status onto our
// purchase status enum. Unknown statuses stay pending rather than failing
// the purchase.
func NormalizePaymentStatus(s string) string {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "paid", "succeeded", "complete":
		return purchases.StatusCompleted
	case "unpaid", "open", "processing", "requires_payment_method", "requires_action", "":
		return purchases.StatusPending
	case "expired", "canceled", "failed":
		return purchases.StatusFailed
	case "refunded":
		return purchases.StatusRefunded
	default:
		return purchases.StatusPending
	}
}
