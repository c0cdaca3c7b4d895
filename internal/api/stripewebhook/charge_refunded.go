package stripewebhooks

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"marketplace-app/internal/domain/purchases"
)

// A refunded charge revokes access: the purchase flips to refunded and no
// longer counts as ownership anywhere.
func (h *Handler) handleChargeRefunded(charge *stripe.Charge) error {
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		return nil
	}

	var lessonID string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var p purchases.Purchase
		err := tx.First(&p, "stripe_payment_intent_id = ?", charge.PaymentIntent.ID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		lessonID = p.LessonID
		if p.Status == purchases.StatusRefunded {
			return nil
		}
		return tx.Model(&purchases.Purchase{}).
			Where("id = ?", p.ID).
			Update("status", purchases.StatusRefunded).Error
	})
	if err != nil {
		return err
	}

	if lessonID != "" {
		h.stats.Invalidate(context.Background(), lessonID)
		h.log.Info("purchase refunded", "lesson_id", lessonID, "payment_intent", charge.PaymentIntent.ID)
	}
	return nil
}
