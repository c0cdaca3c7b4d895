package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/domain/users"
	"marketplace-app/internal/platform/logger"
)

type Handler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHandler(db *gorm.DB, log *logger.Logger) *Handler {
	return &Handler{db: db, log: log.With("handler", "users")}
}

type meDTO struct {
	users.User
	PurchasedLessonIDs []string `json:"purchased_lesson_ids"`
}

// GET /me
func (h *Handler) GetCurrent(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user users.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	var lessonIDs []string
	err := h.db.Model(&purchases.Purchase{}).
		Where("user_id = ? AND status = ?", userID, purchases.StatusCompleted).
		Pluck("lesson_id", &lessonIDs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load purchases"})
		return
	}

	c.JSON(http.StatusOK, meDTO{User: user, PurchasedLessonIDs: lessonIDs})
}
