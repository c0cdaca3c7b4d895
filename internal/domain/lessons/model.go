package lessons

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Price bounds, in minor currency units.
const (
	MinPriceCents int64 = 100
	MaxPriceCents int64 = 99999
)

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 2000
)

type Lesson struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID string `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Title        string `gorm:"not null" json:"title"`
	Description  string `json:"description"`
	Category     string `gorm:"index" json:"category"`
	PriceCents   int64  `gorm:"not null" json:"price_cents"`
	Published    bool   `gorm:"not null;default:false;index" json:"published"`

	// Object key of the lesson video in the media bucket. Never exposed
	// directly; access goes through the signed-URL endpoint.
	VideoObjectKey string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Stats are derived aggregates over purchases and reviews. They are computed
// on read and never persisted.
type Stats struct {
	PurchaseCount int64   `json:"purchase_count"`
	RevenueCents  int64   `json:"revenue_cents"`
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`
}
