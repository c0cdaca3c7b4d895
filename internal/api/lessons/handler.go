package lessons

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
	"marketplace-app/internal/domain/users"
	"marketplace-app/internal/infra/cache"
	"marketplace-app/internal/infra/storage"
	"marketplace-app/internal/platform/logger"
)

type Handler struct {
	db     *gorm.DB
	log    *logger.Logger
	videos storage.VideoStore
	stats  *cache.StatsCache
}

func NewHandler(db *gorm.DB, log *logger.Logger, videos storage.VideoStore, stats *cache.StatsCache) *Handler {
	return &Handler{db: db, log: log.With("handler", "lessons"), videos: videos, stats: stats}
}

func (h *Handler) loadLesson(id string) (*lessons.Lesson, error) {
	var l lessons.Lesson
	if err := h.db.First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("lesson")
		}
		return nil, apperr.Internal(err)
	}
	return &l, nil
}

// GET /lessons
func (h *Handler) Search(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	filters := lessons.FilterSearchVisibility(parseSearchFilters(c), caller)

	var total int64
	if err := searchQuery(h.db, filters).Count(&total).Error; err != nil {
		h.log.Error("lesson search count failed", "error", err)
		httperr.Write(c, apperr.Internal(err))
		return
	}

	var rows []lessons.Lesson
	err := searchQuery(h.db, filters).
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&rows).Error
	if err != nil {
		h.log.Error("lesson search failed", "error", err)
		httperr.Write(c, apperr.Internal(err))
		return
	}

	out := SearchResponseDTO{
		Lessons: make([]LessonDTO, 0, len(rows)),
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}
	for _, l := range rows {
		out.Lessons = append(out.Lessons, toLessonDTO(l))
	}
	c.JSON(http.StatusOK, out)
}

// GET /lessons/:id
func (h *Handler) GetByID(c *gin.Context) {
	caller := middleware.CallerFrom(c)

	l, err := h.loadLesson(c.Param("id"))
	if err != nil {
		httperr.Write(c, err)
		return
	}
	if !lessons.CanView(l, caller) {
		httperr.Write(c, apperr.NotPublished())
		return
	}

	stats, err := h.lessonStatsCached(c, l.ID)
	if err != nil {
		h.log.Error("lesson stats failed", "lesson_id", l.ID, "error", err)
		httperr.Write(c, apperr.Internal(err))
		return
	}

	var uc *lessons.UserContext
	if caller != nil {
		purchased, err := userHasPurchased(h.db, caller.ID, l.ID)
		if err != nil {
			httperr.Write(c, apperr.Internal(err))
			return
		}
		review, err := userReview(h.db, caller.ID, l.ID)
		if err != nil {
			httperr.Write(c, apperr.Internal(err))
			return
		}
		built := lessons.BuildUserContext(purchased, review)
		uc = &built
	}

	c.JSON(http.StatusOK, toLessonDetailDTO(*l, stats, uc))
}

func (h *Handler) lessonStatsCached(c *gin.Context, lessonID string) (lessons.Stats, error) {
	ctx := c.Request.Context()
	if cached, ok := h.stats.Get(ctx, lessonID); ok {
		return *cached, nil
	}
	stats, err := lessonStats(h.db, lessonID)
	if err != nil {
		return stats, err
	}
	h.stats.Set(ctx, lessonID, stats)
	return stats, nil
}

// POST /lessons
func (h *Handler) Create(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if !lessons.CanCreate(caller) {
		httperr.Write(c, apperr.PermissionDenied("only instructors can create lessons"))
		return
	}

	var req struct {
		lessons.Input
		VideoObjectKey string `json:"video_object_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lessons.ValidateInput(req.Input); err != nil {
		httperr.Write(c, err)
		return
	}

	l := lessons.Lesson{
		InstructorID:   caller.ID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		PriceCents:     req.PriceCents,
		VideoObjectKey: req.VideoObjectKey,
	}
	if err := h.db.Create(&l).Error; err != nil {
		h.log.Error("lesson create failed", "error", err)
		httperr.Write(c, apperr.Internal(err))
		return
	}

	h.log.Info("lesson created", "lesson_id", l.ID, "instructor_id", caller.ID)
	c.JSON(http.StatusCreated, toLessonDTO(l))
}

// PUT /lessons/:id
//
// Policy is re-checked against current state inside the transaction; the
// write itself is last-writer-wins.
func (h *Handler) Update(c *gin.Context) {
	caller := middleware.CallerFrom(c)

	var req struct {
		lessons.Input
		Published      *bool   `json:"published"`
		VideoObjectKey *string `json:"video_object_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var updated lessons.Lesson
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var l lessons.Lesson
		if err := tx.First(&l, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("lesson")
			}
			return apperr.Internal(err)
		}
		if !lessons.CanMutate(&l, caller) {
			return apperr.PermissionDenied("not allowed to update this lesson")
		}
		if err := lessons.ValidateInput(req.Input); err != nil {
			return err
		}

		l.Title = req.Title
		l.Description = req.Description
		l.Category = req.Category
		l.PriceCents = req.PriceCents
		if req.Published != nil {
			l.Published = *req.Published
		}
		if req.VideoObjectKey != nil {
			l.VideoObjectKey = *req.VideoObjectKey
		}
		if err := tx.Save(&l).Error; err != nil {
			return apperr.Internal(err)
		}
		updated = l
		return nil
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, toLessonDTO(updated))
}

// DELETE /lessons/:id
//
// The completed-purchase count is read inside the same transaction as the
// delete so a purchase landing concurrently cannot slip past the rule.
func (h *Handler) Delete(c *gin.Context) {
	caller := middleware.CallerFrom(c)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var l lessons.Lesson
		if err := tx.First(&l, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("lesson")
			}
			return apperr.Internal(err)
		}

		count, err := completedPurchaseCount(tx, l.ID)
		if err != nil {
			return apperr.Internal(err)
		}
		if err := lessons.CanDelete(&l, caller, count); err != nil {
			return err
		}

		// Completed purchases block the delete above, so only pending,
		// failed and refunded rows remain to cascade.
		if err := tx.Where("lesson_id = ?", l.ID).Delete(&purchases.Purchase{}).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := tx.Where("lesson_id = ?", l.ID).Delete(&reviews.Review{}).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := tx.Delete(&l).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}

	h.stats.Invalidate(c.Request.Context(), c.Param("id"))
	h.log.Info("lesson deleted", "lesson_id", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// POST /lessons/:id/publish and /lessons/:id/unpublish
func (h *Handler) Publish(c *gin.Context)   { h.setPublished(c, true) }
func (h *Handler) Unpublish(c *gin.Context) { h.setPublished(c, false) }

func (h *Handler) setPublished(c *gin.Context, published bool) {
	caller := middleware.CallerFrom(c)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var l lessons.Lesson
		if err := tx.First(&l, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("lesson")
			}
			return apperr.Internal(err)
		}
		if !lessons.CanMutate(&l, caller) {
			return apperr.PermissionDenied("not allowed to change this lesson")
		}
		return tx.Model(&l).Update("published", published).Error
	})
	if err != nil {
		httperr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"published": published})
}

// GET /lessons/:id/video
func (h *Handler) Video(c *gin.Context) {
	caller := middleware.CallerFrom(c)

	l, err := h.loadLesson(c.Param("id"))
	if err != nil {
		httperr.Write(c, err)
		return
	}
	if !lessons.CanView(l, caller) {
		httperr.Write(c, apperr.NotPublished())
		return
	}

	purchased := false
	if caller != nil {
		purchased, err = userHasPurchased(h.db, caller.ID, l.ID)
		if err != nil {
			httperr.Write(c, apperr.Internal(err))
			return
		}
	}
	if !lessons.CanStreamVideo(l, caller, purchased) {
		httperr.Write(c, apperr.PermissionDenied("purchase required to watch this lesson"))
		return
	}

	url, err := h.videos.SignedVideoURL(c.Request.Context(), l.VideoObjectKey)
	if err != nil {
		h.log.Error("video url signing failed", "lesson_id", l.ID, "error", err)
		httperr.Write(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GET /instructors/:id/lessons
//
// Targeted listing: the owner and admins see drafts here even though search
// never returns them for admins.
func (h *Handler) ListByInstructor(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	instructorID := c.Param("id")

	filters := lessons.SearchFilters{
		InstructorID: instructorID,
		Sort:         lessons.SortCreatedAt,
		SortDesc:     true,
	}
	ownView := caller != nil && (caller.ID == instructorID || caller.Role == users.RoleAdmin)
	if !ownView {
		published := true
		filters.Published = &published
	}

	var rows []lessons.Lesson
	if err := searchQuery(h.db, filters).Find(&rows).Error; err != nil {
		h.log.Error("instructor listing failed", "instructor_id", instructorID, "error", err)
		httperr.Write(c, apperr.Internal(err))
		return
	}

	out := make([]LessonDTO, 0, len(rows))
	for _, l := range rows {
		out = append(out, toLessonDTO(l))
	}
	c.JSON(http.StatusOK, gin.H{"lessons": out})
}
