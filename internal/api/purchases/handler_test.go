package purchases

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"marketplace-app/database"
	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/domain/users"
	"marketplace-app/internal/platform/logger"
)

var testDBSeq atomic.Int64

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:purchases_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestRouter(db *gorm.DB, userID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(db, logger.NewNop(), "http://localhost:5173")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
			c.Set("role", role)
		}
		c.Next()
	})
	r.POST("/lessons/:id/checkout", h.CreateCheckout)
	r.GET("/purchases", h.ListMine)
	return r
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Checkout paths that fail before any Stripe call.
func TestCheckoutPreconditions(t *testing.T) {
	db := testDB(t)
	l := lessons.Lesson{InstructorID: "u-1", Title: "Buyable", PriceCents: 1500, Published: true}
	require.NoError(t, db.Create(&l).Error)

	t.Run("anonymous_unauthorized", func(t *testing.T) {
		r := newTestRouter(db, "", "")
		w := do(r, http.MethodPost, "/lessons/"+l.ID+"/checkout")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing_lesson_404", func(t *testing.T) {
		r := newTestRouter(db, "u-2", users.RoleStudent)
		w := do(r, http.MethodPost, "/lessons/00000000-0000-0000-0000-000000000000/checkout")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("owner_cannot_buy_own_lesson", func(t *testing.T) {
		r := newTestRouter(db, "u-1", users.RoleInstructor)
		w := do(r, http.MethodPost, "/lessons/"+l.ID+"/checkout")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("draft_cannot_be_bought", func(t *testing.T) {
		draft := lessons.Lesson{InstructorID: "u-1", Title: "Draft", PriceCents: 1500}
		require.NoError(t, db.Create(&draft).Error)

		r := newTestRouter(db, "u-2", users.RoleStudent)
		w := do(r, http.MethodPost, "/lessons/"+draft.ID+"/checkout")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("duplicate_completed_purchase_conflict", func(t *testing.T) {
		require.NoError(t, db.Create(&purchases.Purchase{UserID: "u-2", LessonID: l.ID, AmountCents: 1500, Status: purchases.StatusCompleted}).Error)

		r := newTestRouter(db, "u-2", users.RoleStudent)
		w := do(r, http.MethodPost, "/lessons/"+l.ID+"/checkout")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already_purchased")
	})
}

func TestListMine(t *testing.T) {
	db := testDB(t)
	l := lessons.Lesson{InstructorID: "u-1", Title: "Bought", PriceCents: 1500, Published: true}
	require.NoError(t, db.Create(&l).Error)
	require.NoError(t, db.Create(&purchases.Purchase{UserID: "u-2", LessonID: l.ID, AmountCents: 1500, Status: purchases.StatusCompleted}).Error)
	require.NoError(t, db.Create(&purchases.Purchase{UserID: "u-3", LessonID: l.ID, AmountCents: 1500, Status: purchases.StatusCompleted}).Error)

	r := newTestRouter(db, "u-2", users.RoleStudent)
	w := do(r, http.MethodGet, "/purchases")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u-2")
	assert.NotContains(t, w.Body.String(), "u-3")
}

// stubStripe points the stripe client at a local server for the duration of
// the test. The backend is package-global state, so tests using this helper
// must not run in parallel.
func stubStripe(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	prevKey := stripe.Key
	stripe.Key = "sk_test_stub"
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}))
	t.Cleanup(func() {
		stripe.Key = prevKey
		stripe.SetBackend(stripe.APIBackend, nil)
	})
}

func TestCheckoutSessionRoundTrip(t *testing.T) {
	db := testDB(t)
	l := lessons.Lesson{InstructorID: "u-1", Title: "Buyable", PriceCents: 1500, Published: true}
	require.NoError(t, db.Create(&l).Error)

	t.Run("session_created_and_recorded", func(t *testing.T) {
		stubStripe(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"cs_test_stub","object":"checkout.session","url":"https://checkout.stripe.com/pay/cs_test_stub"}`))
		})

		r := newTestRouter(db, "u-2", users.RoleStudent)
		w := do(r, http.MethodPost, "/lessons/"+l.ID+"/checkout")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://checkout.stripe.com/pay/cs_test_stub")

		var p purchases.Purchase
		require.NoError(t, db.First(&p, "user_id = ? AND lesson_id = ?", "u-2", l.ID).Error)
		assert.Equal(t, purchases.StatusPending, p.Status)
		require.NotNil(t, p.StripeSessionID)
		assert.Equal(t, "cs_test_stub", *p.StripeSessionID)
	})

	t.Run("stripe_failure_leaves_no_pending_row", func(t *testing.T) {
		stubStripe(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"stub rejection"}}`))
		})

		r := newTestRouter(db, "u-4", users.RoleStudent)
		w := do(r, http.MethodPost, "/lessons/"+l.ID+"/checkout")
		require.Equal(t, http.StatusInternalServerError, w.Code)

		var count int64
		require.NoError(t, db.Model(&purchases.Purchase{}).
			Where("user_id = ? AND lesson_id = ?", "u-4", l.ID).
			Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})
}
