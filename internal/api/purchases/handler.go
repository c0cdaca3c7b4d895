package purchases

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"gorm.io/gorm"

	"marketplace-app/internal/app/http/httperr"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/domain/apperr"
	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/platform/logger"
)

type Handler struct {
	db     *gorm.DB
	log    *logger.Logger
	appURL string
}

func NewHandler(db *gorm.DB, log *logger.Logger, appURL string) *Handler {
	return &Handler{db: db, log: log.With("handler", "purchases"), appURL: appURL}
}

// POST /lessons/:id/checkout
//
// The amount always comes from the lesson row, never from the client.
func (h *Handler) CreateCheckout(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var l lessons.Lesson
	if err := h.db.First(&l, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Write(c, apperr.NotFound("lesson"))
			return
		}
		httperr.Write(c, apperr.Internal(err))
		return
	}

	if !lessons.CanView(&l, caller) {
		httperr.Write(c, apperr.NotPublished())
		return
	}
	if !l.Published {
		// Owners and admins can see drafts but nobody can buy one.
		httperr.Write(c, apperr.NotPublished())
		return
	}
	if l.InstructorID == caller.ID {
		httperr.Write(c, apperr.PermissionDenied("cannot purchase your own lesson"))
		return
	}

	purchased, err := hasCompletedPurchase(h.db, caller.ID, l.ID)
	if err != nil {
		httperr.Write(c, apperr.Internal(err))
		return
	}
	if purchased {
		c.JSON(http.StatusConflict, gin.H{"error": "lesson already purchased", "code": "already_purchased"})
		return
	}

	p := purchases.Purchase{
		UserID:      caller.ID,
		LessonID:    l.ID,
		AmountCents: l.PriceCents,
		Status:      purchases.StatusPending,
	}
	if err := h.db.Create(&p).Error; err != nil {
		httperr.Write(c, apperr.Internal(err))
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(h.appURL + "/lessons/" + l.ID + "?purchased=1"),
		CancelURL:  stripe.String(h.appURL + "/lessons/" + l.ID + "?canceled=1"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(l.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(l.Title),
					},
				},
			},
		},
		ClientReferenceID: stripe.String(p.ID),
		Metadata: map[string]string{
			"purchase_id": p.ID,
			"lesson_id":   l.ID,
			"user_id":     caller.ID,
		},
	}

	session, err := checkoutsession.New(params)
	if err != nil {
		// Without a session id no webhook can ever complete or expire this
		// row, so it must not outlive the failed call.
		if derr := h.db.Delete(&purchases.Purchase{}, "id = ?", p.ID).Error; derr != nil {
			h.log.Error("orphan purchase cleanup failed", "purchase_id", p.ID, "error", derr)
		}
		h.log.Error("stripe checkout session failed", "lesson_id", l.ID, "error", err)
		httperr.Write(c, apperr.Internal(fmt.Errorf("create checkout session: %w", err)))
		return
	}

	if err := h.db.Model(&purchases.Purchase{}).
		Where("id = ?", p.ID).
		Update("stripe_session_id", session.ID).Error; err != nil {
		httperr.Write(c, apperr.Internal(err))
		return
	}

	h.log.Info("checkout session created", "purchase_id", p.ID, "lesson_id", l.ID)
	c.JSON(http.StatusOK, gin.H{"checkout_url": session.URL, "purchase_id": p.ID})
}

// GET /purchases
func (h *Handler) ListMine(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var rows []purchases.Purchase
	err := h.db.
		Where("user_id = ?", caller.ID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		httperr.Write(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": rows})
}

func hasCompletedPurchase(db *gorm.DB, userID, lessonID string) (bool, error) {
	var count int64
	err := db.Model(&purchases.Purchase{}).
		Where("user_id = ? AND lesson_id = ? AND status = ?", userID, lessonID, purchases.StatusCompleted).
		Count(&count).Error
	return count > 0, err
}
