package reviews

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"marketplace-app/internal/app/http/httperr"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/domain/apperr"
	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/domain/reviews"
	"marketplace-app/internal/infra/cache"
	"marketplace-app/internal/platform/logger"
)

type Handler struct {
	db    *gorm.DB
	log   *logger.Logger
	stats *cache.StatsCache
}

func NewHandler(db *gorm.DB, log *logger.Logger, stats *cache.StatsCache) *Handler {
	return &Handler{db: db, log: log.With("handler", "reviews"), stats: stats}
}

func (h *Handler) loadVisibleLesson(c *gin.Context) (*lessons.Lesson, bool) {
	var l lessons.Lesson
	if err := h.db.First(&l, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Write(c, apperr.NotFound("lesson"))
		} else {
			httperr.Write(c, apperr.Internal(err))
		}
		return nil, false
	}
	if !lessons.CanView(&l, middleware.CallerFrom(c)) {
		httperr.Write(c, apperr.NotPublished())
		return nil, false
	}
	return &l, true
}

// GET /lessons/:id/reviews
func (h *Handler) ListForLesson(c *gin.Context) {
	l, ok := h.loadVisibleLesson(c)
	if !ok {
		return
	}

	var rows []reviews.Review
	err := h.db.
		Where("lesson_id = ?", l.ID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		httperr.Write(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": rows})
}

// PUT /lessons/:id/review
//
// Upserts the caller's review. One review per (user, lesson); writing again
// replaces rating and comment. Requires a completed purchase.
func (h *Handler) Upsert(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !reviews.ValidRating(req.Rating) {
		httperr.Write(c, apperr.Validation("rating", "rating must be between 1 and 5"))
		return
	}

	l, ok := h.loadVisibleLesson(c)
	if !ok {
		return
	}

	var count int64
	err := h.db.Model(&purchases.Purchase{}).
		Where("user_id = ? AND lesson_id = ? AND status = ?", caller.ID, l.ID, purchases.StatusCompleted).
		Count(&count).Error
	if err != nil {
		httperr.Write(c, apperr.Internal(err))
		return
	}
	if count == 0 {
		httperr.Write(c, apperr.PermissionDenied("only buyers can review a lesson"))
		return
	}

	var rv reviews.Review
	err = h.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND lesson_id = ?", caller.ID, l.ID).First(&rv).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			rv = reviews.Review{UserID: caller.ID, LessonID: l.ID, Rating: req.Rating, Comment: req.Comment}
			return tx.Create(&rv).Error
		case err != nil:
			return err
		default:
			rv.Rating = req.Rating
			rv.Comment = req.Comment
			return tx.Save(&rv).Error
		}
	})
	if err != nil {
		h.log.Error("review upsert failed", "lesson_id", l.ID, "error", err)
		httperr.Write(c, apperr.Internal(err))
		return
	}

	h.stats.Invalidate(c.Request.Context(), l.ID)
	c.JSON(http.StatusOK, rv)
}

// DELETE /lessons/:id/review
func (h *Handler) DeleteMine(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	res := h.db.
		Where("user_id = ? AND lesson_id = ?", caller.ID, c.Param("id")).
		Delete(&reviews.Review{})
	if res.Error != nil {
		httperr.Write(c, apperr.Internal(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		httperr.Write(c, apperr.NotFound("review"))
		return
	}

	h.stats.Invalidate(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
