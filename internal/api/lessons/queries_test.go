package lessons

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marketplace-app/database"
	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/domain/reviews"
)

var testDBSeq atomic.Int64

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache DSN keeps the pool's connections on one in-memory
	// database while isolating tests from each other.
	dsn := fmt.Sprintf("file:test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedLesson(t *testing.T, db *gorm.DB, l lessons.Lesson) lessons.Lesson {
	t.Helper()
	require.NoError(t, db.Create(&l).Error)
	return l
}

func TestSearchQueryFilters(t *testing.T) {
	db := testDB(t)

	seedLesson(t, db, lessons.Lesson{InstructorID: "u-1", Title: "Guitar basics", Category: "music", PriceCents: 1500, Published: true})
	seedLesson(t, db, lessons.Lesson{InstructorID: "u-1", Title: "Guitar advanced", Category: "music", PriceCents: 4500, Published: false})
	seedLesson(t, db, lessons.Lesson{InstructorID: "u-2", Title: "Watercolor intro", Category: "art", PriceCents: 2500, Published: true})

	published := true

	t.Run("published_only", func(t *testing.T) {
		var rows []lessons.Lesson
		require.NoError(t, searchQuery(db, lessons.SearchFilters{Published: &published, Sort: lessons.SortCreatedAt}).Find(&rows).Error)
		assert.Len(t, rows, 2)
	})

	t.Run("both_when_nil", func(t *testing.T) {
		var rows []lessons.Lesson
		require.NoError(t, searchQuery(db, lessons.SearchFilters{Sort: lessons.SortCreatedAt}).Find(&rows).Error)
		assert.Len(t, rows, 3)
	})

	t.Run("category", func(t *testing.T) {
		var rows []lessons.Lesson
		require.NoError(t, searchQuery(db, lessons.SearchFilters{Category: "art", Sort: lessons.SortCreatedAt}).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, "Watercolor intro", rows[0].Title)
	})

	t.Run("price_bounds", func(t *testing.T) {
		min, max := int64(2000), int64(5000)
		var rows []lessons.Lesson
		require.NoError(t, searchQuery(db, lessons.SearchFilters{MinPrice: &min, MaxPrice: &max, Sort: lessons.SortPrice}).Find(&rows).Error)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(2500), rows[0].PriceCents)
		assert.Equal(t, int64(4500), rows[1].PriceCents)
	})

	t.Run("instructor", func(t *testing.T) {
		var rows []lessons.Lesson
		require.NoError(t, searchQuery(db, lessons.SearchFilters{InstructorID: "u-1", Sort: lessons.SortCreatedAt}).Find(&rows).Error)
		assert.Len(t, rows, 2)
	})

	t.Run("text_query", func(t *testing.T) {
		var rows []lessons.Lesson
		require.NoError(t, searchQuery(db, lessons.SearchFilters{Query: "Guitar", Sort: lessons.SortTitle}).Find(&rows).Error)
		require.Len(t, rows, 2)
		assert.Equal(t, "Guitar advanced", rows[0].Title)
	})

	t.Run("sort_price_desc", func(t *testing.T) {
		var rows []lessons.Lesson
		require.NoError(t, searchQuery(db, lessons.SearchFilters{Sort: lessons.SortPrice, SortDesc: true}).Find(&rows).Error)
		require.Len(t, rows, 3)
		assert.Equal(t, int64(4500), rows[0].PriceCents)
	})
}

func TestAggregates(t *testing.T) {
	db := testDB(t)
	l := seedLesson(t, db, lessons.Lesson{InstructorID: "u-1", Title: "Guitar basics", PriceCents: 1500, Published: true})

	require.NoError(t, db.Create(&purchases.Purchase{UserID: "u-2", LessonID: l.ID, AmountCents: 1500, Status: purchases.StatusCompleted}).Error)
	require.NoError(t, db.Create(&purchases.Purchase{UserID: "u-3", LessonID: l.ID, AmountCents: 1500, Status: purchases.StatusCompleted}).Error)
	require.NoError(t, db.Create(&purchases.Purchase{UserID: "u-4", LessonID: l.ID, AmountCents: 1500, Status: purchases.StatusPending}).Error)
	require.NoError(t, db.Create(&purchases.Purchase{UserID: "u-5", LessonID: l.ID, AmountCents: 1500, Status: purchases.StatusRefunded}).Error)

	require.NoError(t, db.Create(&reviews.Review{UserID: "u-2", LessonID: l.ID, Rating: 5}).Error)
	require.NoError(t, db.Create(&reviews.Review{UserID: "u-3", LessonID: l.ID, Rating: 4, Comment: "solid"}).Error)

	t.Run("stats_count_completed_only", func(t *testing.T) {
		s, err := lessonStats(db, l.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), s.PurchaseCount)
		assert.Equal(t, int64(3000), s.RevenueCents)
		assert.Equal(t, int64(2), s.ReviewCount)
		assert.InDelta(t, 4.5, s.AverageRating, 0.001)
	})

	t.Run("completed_purchase_count", func(t *testing.T) {
		count, err := completedPurchaseCount(db, l.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("user_has_purchased", func(t *testing.T) {
		ok, err := userHasPurchased(db, "u-2", l.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		// pending does not count
		ok, err = userHasPurchased(db, "u-4", l.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		// refunded does not count
		ok, err = userHasPurchased(db, "u-5", l.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("user_review", func(t *testing.T) {
		rv, err := userReview(db, "u-3", l.ID)
		require.NoError(t, err)
		require.NotNil(t, rv)
		assert.Equal(t, 4, rv.Rating)
		assert.Equal(t, "solid", rv.Comment)

		rv, err = userReview(db, "u-9", l.ID)
		require.NoError(t, err)
		assert.Nil(t, rv)
	})
}
