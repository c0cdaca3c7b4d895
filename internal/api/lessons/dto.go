package lessons

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace-app/internal/domain/lessons"
)

// LessonDTO is the listing shape. Unpublished lessons only ever reach a
// client through owner/admin paths, so the flag is included.
type LessonDTO struct {
	ID           string    `json:"id"`
	InstructorID string    `json:"instructor_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	PriceCents   int64     `json:"price_cents"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LessonDetailDTO adds aggregates and, for authenticated callers, the
// user-specific context.
type LessonDetailDTO struct {
	LessonDTO
	Stats       lessons.Stats        `json:"stats"`
	UserContext *lessons.UserContext `json:"user_context,omitempty"`
}

type SearchResponseDTO struct {
	Lessons []LessonDTO `json:"lessons"`
	Total   int64       `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

func toLessonDTO(l lessons.Lesson) LessonDTO {
	return LessonDTO{
		ID:           l.ID,
		InstructorID: l.InstructorID,
		Title:        l.Title,
		Description:  l.Description,
		Category:     l.Category,
		PriceCents:   l.PriceCents,
		Published:    l.Published,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func toLessonDetailDTO(l lessons.Lesson, stats lessons.Stats, uc *lessons.UserContext) LessonDetailDTO {
	return LessonDetailDTO{
		LessonDTO:   toLessonDTO(l),
		Stats:       stats,
		UserContext: uc,
	}
}

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// parseSearchFilters reads the query string into the domain filter shape.
// Visibility coercion happens afterwards in the policy, not here.
func parseSearchFilters(c *gin.Context) lessons.SearchFilters {
	f := lessons.SearchFilters{
		Category:     c.Query("category"),
		InstructorID: c.Query("instructor_id"),
		Query:        c.Query("q"),
		Sort:         lessons.NormalizeSort(c.Query("sort")),
		SortDesc:     c.DefaultQuery("order", "desc") == "desc",
		Limit:        defaultSearchLimit,
	}

	if v, err := strconv.ParseInt(c.Query("min_price"), 10, 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseInt(c.Query("max_price"), 10, 64); err == nil {
		f.MaxPrice = &v
	}
	if raw := c.Query("published"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.Published = &v
		}
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		f.Limit = v
		if f.Limit > maxSearchLimit {
			f.Limit = maxSearchLimit
		}
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		f.Offset = v
	}
	return f
}
