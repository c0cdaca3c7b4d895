package lessons

import (
	"marketplace-app/internal/domain/users"
)

type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortPrice     SortField = "price_cents"
	SortTitle     SortField = "title"
)

// NormalizeSort maps a requested sort key onto a known column. Unknown keys
// fall back to created_at.
func NormalizeSort(requested string) SortField {
	switch requested {
	case "price", "price_cents":
		return SortPrice
	case "title":
		return SortTitle
	case "created_at", "createdAt":
		return SortCreatedAt
	default:
		return SortCreatedAt
	}
}

// SearchFilters is the filter shape executed by the query layer.
type SearchFilters struct {
	Category     string
	MinPrice     *int64
	MaxPrice     *int64
	InstructorID string
	Query        string
	Published    *bool // nil means "both"
	Limit        int
	Offset       int
	Sort         SortField
	SortDesc     bool
}

// FilterSearchVisibility narrows the published filter based on who is
// asking. Only instructors keep whatever they requested, including nil;
// every other caller, admins included, is forced to published-only. Admins
// do see unpublished lessons when fetching them directly, just not through
// search.
func FilterSearchVisibility(f SearchFilters, caller *Caller) SearchFilters {
	if caller != nil && caller.Role == users.RoleInstructor {
		return f
	}
	published := true
	f.Published = &published
	return f
}
