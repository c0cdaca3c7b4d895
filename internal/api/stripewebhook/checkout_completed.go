package stripewebhooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"

	"marketplace-app/internal/domain/purchases"
	stripestatus "marketplace-app/internal/infra/stripe"
)

// purchaseFromSession resolves the pending purchase row a checkout session
// belongs to: metadata.purchase_id preferred, ClientReferenceID as a
// fallback, session id as a last resort.
func (h *Handler) purchaseFromSession(tx *gorm.DB, session *stripe.CheckoutSession) (*purchases.Purchase, error) {
	purchaseID := ""
	if session.Metadata != nil {
		purchaseID = session.Metadata["purchase_id"]
	}
	if purchaseID == "" {
		purchaseID = session.ClientReferenceID
	}

	var p purchases.Purchase
	var err error
	if purchaseID != "" {
		err = tx.First(&p, "id = ?", purchaseID).Error
	} else {
		err = tx.First(&p, "stripe_session_id = ?", session.ID).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no purchase for checkout session %s", session.ID)
		}
		return nil, err
	}
	return &p, nil
}

func (h *Handler) handleCheckoutCompleted(session *stripe.CheckoutSession) error {
	// Async payment methods can complete the session before the payment
	// settles; those purchases stay pending until the follow-up event.
	if stripestatus.NormalizePaymentStatus(string(session.PaymentStatus)) != purchases.StatusCompleted {
		h.log.Info("checkout completed with non-paid status",
			"session_id", session.ID, "payment_status", session.PaymentStatus)
		return nil
	}

	var lessonID string
	err := h.db.Transaction(func(tx *gorm.DB) error {
		p, err := h.purchaseFromSession(tx, session)
		if err != nil {
			return err
		}
		lessonID = p.LessonID

		// Replays of the same event are acknowledged without a second write.
		if p.Status == purchases.StatusCompleted {
			return nil
		}

		updates := map[string]interface{}{
			"status":            purchases.StatusCompleted,
			"stripe_session_id": session.ID,
		}
		if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
			updates["stripe_payment_intent_id"] = session.PaymentIntent.ID
		}
		return tx.Model(&purchases.Purchase{}).Where("id = ?", p.ID).Updates(updates).Error
	})
	if err != nil {
		return err
	}

	h.stats.Invalidate(context.Background(), lessonID)
	h.log.Info("purchase completed", "lesson_id", lessonID, "session_id", session.ID)
	return nil
}

func (h *Handler) handleCheckoutExpired(session *stripe.CheckoutSession) error {
	return h.db.Transaction(func(tx *gorm.DB) error {
		p, err := h.purchaseFromSession(tx, session)
		if err != nil {
			// Nothing to fail; acknowledge so Stripe stops retrying.
			return nil
		}
		if p.Status != purchases.StatusPending {
			return nil
		}
		return tx.Model(&purchases.Purchase{}).
			Where("id = ?", p.ID).
			Update("status", purchases.StatusFailed).Error
	})
}
