package lessons

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-app/internal/domain/users"
)

func boolPtr(b bool) *bool { return &b }

func TestFilterSearchVisibility(t *testing.T) {
	t.Run("anonymous_forced_published", func(t *testing.T) {
		out := FilterSearchVisibility(SearchFilters{Published: boolPtr(false)}, nil)
		require.NotNil(t, out.Published)
		assert.True(t, *out.Published)
	})

	t.Run("student_forced_published", func(t *testing.T) {
		out := FilterSearchVisibility(SearchFilters{}, &Caller{ID: "u-2", Role: users.RoleStudent})
		require.NotNil(t, out.Published)
		assert.True(t, *out.Published)
	})

	t.Run("admin_forced_published", func(t *testing.T) {
		// Admins do not get unfiltered search visibility through this path.
		out := FilterSearchVisibility(SearchFilters{Published: boolPtr(false)}, &Caller{ID: "a-1", Role: users.RoleAdmin})
		require.NotNil(t, out.Published)
		assert.True(t, *out.Published)
	})

	t.Run("instructor_keeps_explicit_filter", func(t *testing.T) {
		out := FilterSearchVisibility(SearchFilters{Published: boolPtr(false)}, &Caller{ID: "u-1", Role: users.RoleInstructor})
		require.NotNil(t, out.Published)
		assert.False(t, *out.Published)
	})

	t.Run("instructor_keeps_nil_meaning_both", func(t *testing.T) {
		out := FilterSearchVisibility(SearchFilters{}, &Caller{ID: "u-1", Role: users.RoleInstructor})
		assert.Nil(t, out.Published)
	})

	t.Run("other_fields_untouched", func(t *testing.T) {
		min := int64(500)
		in := SearchFilters{Category: "music", MinPrice: &min, InstructorID: "u-1", Query: "scales", Limit: 10, Offset: 20}
		out := FilterSearchVisibility(in, nil)
		assert.Equal(t, in.Category, out.Category)
		assert.Equal(t, in.MinPrice, out.MinPrice)
		assert.Equal(t, in.InstructorID, out.InstructorID)
		assert.Equal(t, in.Query, out.Query)
		assert.Equal(t, in.Limit, out.Limit)
		assert.Equal(t, in.Offset, out.Offset)
	})
}

func TestNormalizeSort(t *testing.T) {
	assert.Equal(t, SortPrice, NormalizeSort("price"))
	assert.Equal(t, SortTitle, NormalizeSort("title"))
	assert.Equal(t, SortCreatedAt, NormalizeSort("created_at"))
	assert.Equal(t, SortCreatedAt, NormalizeSort("rating"))
	assert.Equal(t, SortCreatedAt, NormalizeSort(""))
}
