package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/domain/users"
	"marketplace-app/internal/platform/logger"
)

type Handler struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHandler(db *gorm.DB, log *logger.Logger) *Handler {
	return &Handler{db: db, log: log.With("handler", "admin")}
}

type DashboardStats struct {
	TotalUsers         int64          `json:"total_users"`
	TotalLessons       int64          `json:"total_lessons"`
	PublishedLessons   int64          `json:"published_lessons"`
	CompletedPurchases int64          `json:"completed_purchases"`
	TotalRevenueCents  int64          `json:"total_revenue_cents"`
	RecentRevenueCents int64          `json:"recent_revenue_cents"`
	UsersPerRole       map[string]int `json:"users_per_role"`
}

// GET /admin/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	var stats DashboardStats

	h.db.Model(&users.User{}).Count(&stats.TotalUsers)
	h.db.Model(&lessons.Lesson{}).Count(&stats.TotalLessons)
	h.db.Model(&lessons.Lesson{}).Where("published = ?", true).Count(&stats.PublishedLessons)
	h.db.Model(&purchases.Purchase{}).
		Where("status = ?", purchases.StatusCompleted).
		Count(&stats.CompletedPurchases)

	h.db.Model(&purchases.Purchase{}).
		Where("status = ?", purchases.StatusCompleted).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&stats.TotalRevenueCents)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	h.db.Model(&purchases.Purchase{}).
		Where("status = ? AND created_at >= ?", purchases.StatusCompleted, thirtyDaysAgo).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&stats.RecentRevenueCents)

	type roleCount struct {
		Role  string
		Count int
	}
	var counts []roleCount
	h.db.Model(&users.User{}).
		Select("role, COUNT(id) as count").
		Group("role").
		Scan(&counts)

	stats.UsersPerRole = map[string]int{}
	for _, rc := range counts {
		stats.UsersPerRole[rc.Role] = rc.Count
	}

	c.JSON(http.StatusOK, stats)
}

// GET /admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	var rows []users.User
	if err := h.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": rows})
}

// GET /admin/purchases
func (h *Handler) ListPurchases(c *gin.Context) {
	var rows []purchases.Purchase
	if err := h.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load purchases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": rows})
}

// GET /admin/users/:id
func (h *Handler) GetUserDetails(c *gin.Context) {
	var user users.User
	if err := h.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var rows []purchases.Purchase
	if err := h.db.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "purchases": rows})
}
