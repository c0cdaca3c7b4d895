package reviews

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is unique per (user, lesson); writing again replaces the rating.
type Review struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_lesson" json:"user_id"`
	LessonID string `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_user_lesson;index" json:"lesson_id"`

	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
