package reviews

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marketplace-app/database"
	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/domain/reviews"
	"marketplace-app/internal/domain/users"
	"marketplace-app/internal/platform/logger"
)

var testDBSeq atomic.Int64

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:reviews_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestRouter(db *gorm.DB, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(db, logger.NewNop(), nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
			c.Set("role", role)
		}
		c.Next()
	})
	r.GET("/lessons/:id/reviews", h.ListForLesson)
	r.PUT("/lessons/:id/review", h.Upsert)
	r.DELETE("/lessons/:id/review", h.DeleteMine)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, db *gorm.DB) lessons.Lesson {
	t.Helper()
	l := lessons.Lesson{InstructorID: "u-1", Title: "Reviewed lesson", PriceCents: 1500, Published: true}
	require.NoError(t, db.Create(&l).Error)
	require.NoError(t, db.Create(&purchases.Purchase{UserID: "u-2", LessonID: l.ID, AmountCents: 1500, Status: purchases.StatusCompleted}).Error)
	return l
}

func TestUpsertReview(t *testing.T) {
	db := testDB(t)
	l := seed(t, db)

	t.Run("buyer_creates_review", func(t *testing.T) {
		r := newTestRouter(db, "u-2", users.RoleStudent)
		w := do(t, r, http.MethodPut, "/lessons/"+l.ID+"/review", gin.H{"rating": 4, "comment": "good"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("second_write_replaces_not_duplicates", func(t *testing.T) {
		r := newTestRouter(db, "u-2", users.RoleStudent)
		w := do(t, r, http.MethodPut, "/lessons/"+l.ID+"/review", gin.H{"rating": 5})
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		require.NoError(t, db.Model(&reviews.Review{}).Where("user_id = ? AND lesson_id = ?", "u-2", l.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		var rv reviews.Review
		require.NoError(t, db.First(&rv, "user_id = ? AND lesson_id = ?", "u-2", l.ID).Error)
		assert.Equal(t, 5, rv.Rating)
	})

	t.Run("non_buyer_forbidden", func(t *testing.T) {
		r := newTestRouter(db, "u-3", users.RoleStudent)
		w := do(t, r, http.MethodPut, "/lessons/"+l.ID+"/review", gin.H{"rating": 3})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("rating_out_of_range", func(t *testing.T) {
		r := newTestRouter(db, "u-2", users.RoleStudent)
		for _, rating := range []int{0, 6, -1} {
			w := do(t, r, http.MethodPut, "/lessons/"+l.ID+"/review", gin.H{"rating": rating})
			assert.Equal(t, http.StatusBadRequest, w.Code, "rating %d", rating)
		}
	})

	t.Run("anonymous_unauthorized", func(t *testing.T) {
		r := newTestRouter(db, "", "")
		w := do(t, r, http.MethodPut, "/lessons/"+l.ID+"/review", gin.H{"rating": 3})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestListReviews(t *testing.T) {
	db := testDB(t)
	l := seed(t, db)
	require.NoError(t, db.Create(&reviews.Review{UserID: "u-2", LessonID: l.ID, Rating: 4}).Error)

	t.Run("public_listing", func(t *testing.T) {
		r := newTestRouter(db, "", "")
		w := do(t, r, http.MethodGet, "/lessons/"+l.ID+"/reviews", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "\"rating\":4")
	})

	t.Run("unpublished_lesson_hidden", func(t *testing.T) {
		draft := lessons.Lesson{InstructorID: "u-1", Title: "Draft", PriceCents: 1500}
		require.NoError(t, db.Create(&draft).Error)

		r := newTestRouter(db, "", "")
		w := do(t, r, http.MethodGet, "/lessons/"+draft.ID+"/reviews", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDeleteReview(t *testing.T) {
	db := testDB(t)
	l := seed(t, db)
	require.NoError(t, db.Create(&reviews.Review{UserID: "u-2", LessonID: l.ID, Rating: 4}).Error)

	t.Run("owner_deletes", func(t *testing.T) {
		r := newTestRouter(db, "u-2", users.RoleStudent)
		w := do(t, r, http.MethodDelete, "/lessons/"+l.ID+"/review", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("absent_review_404", func(t *testing.T) {
		r := newTestRouter(db, "u-2", users.RoleStudent)
		w := do(t, r, http.MethodDelete, "/lessons/"+l.ID+"/review", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
