package purchases

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

type Purchase struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   string `gorm:"type:uuid;not null;index:idx_purchases_user" json:"user_id"`
	LessonID string `gorm:"type:uuid;not null;index:idx_purchases_lesson" json:"lesson_id"`

	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Status      string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	StripeSessionID       *string `gorm:"uniqueIndex:idx_purchases_stripe_session" json:"-"`
	StripePaymentIntentID *string `gorm:"index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
