package lessons

import (
	"strings"

	"marketplace-app/internal/domain/apperr"
)

// Input is the mutable part of a lesson as accepted from clients.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
}

// ValidateInput checks title, then description, then price, and stops at the
// first failure.
func ValidateInput(in Input) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperr.Validation("title", "title is required")
	}
	if len([]rune(title)) > MaxTitleLen {
		return apperr.Validation("title", "title must be at most 200 characters")
	}
	if len([]rune(in.Description)) > MaxDescriptionLen {
		return apperr.Validation("description", "description must be at most 2000 characters")
	}
	if in.PriceCents < MinPriceCents || in.PriceCents > MaxPriceCents {
		return apperr.InvalidPrice(in.PriceCents)
	}
	return nil
}
