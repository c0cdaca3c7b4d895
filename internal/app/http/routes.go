package routes

import (
	adminapi "marketplace-app/internal/api/admin"
	authapi "marketplace-app/internal/api/auth"
	lessonsapi "marketplace-app/internal/api/lessons"
	purchasesapi "marketplace-app/internal/api/purchases"
	reviewsapi "marketplace-app/internal/api/reviews"
	stripewebhooks "marketplace-app/internal/api/stripewebhook"
	usersapi "marketplace-app/internal/api/users"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

// Handlers collects the injected handler set; nothing here reaches for
// globals.
type Handlers struct {
	Auth      *authapi.Handler
	Users     *usersapi.Handler
	Lessons   *lessonsapi.Handler
	Purchases *purchasesapi.Handler
	Reviews   *reviewsapi.Handler
	Webhook   *stripewebhooks.Handler
	Admin     *adminapi.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string) {
	r.POST("/webhook", h.Webhook.Handle)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public reads: anonymous callers are legal, identity is attached when
	// present so the policy can widen visibility.
	public := r.Group("/")
	public.Use(middleware.AuthOptional(jwtSecret))
	public.GET("/lessons", h.Lessons.Search)
	public.GET("/lessons/:id", h.Lessons.GetByID)
	public.GET("/lessons/:id/reviews", h.Reviews.ListForLesson)
	public.GET("/instructors/:id/lessons", h.Lessons.ListByInstructor)

	// Public writes go through the sanitizer.
	open := r.Group("/")
	open.Use(middleware.SanitizeInput())
	open.POST("/auth/register", h.Auth.Register)
	open.POST("/auth/login", h.Auth.Login)

	if h.Auth.GoogleEnabled() {
		open.GET("/auth/google", h.Auth.GoogleStart)
		open.GET("/auth/google/callback", h.Auth.GoogleCallback)
	}

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthRequired(jwtSecret), middleware.SanitizeInput())
	auth.GET("/me", h.Users.GetCurrent)
	auth.POST("/auth/change-password", h.Auth.ChangePassword)

	auth.POST("/lessons", h.Lessons.Create)
	auth.PUT("/lessons/:id", h.Lessons.Update)
	auth.DELETE("/lessons/:id", h.Lessons.Delete)
	auth.POST("/lessons/:id/publish", h.Lessons.Publish)
	auth.POST("/lessons/:id/unpublish", h.Lessons.Unpublish)
	auth.GET("/lessons/:id/video", h.Lessons.Video)

	auth.POST("/lessons/:id/checkout", h.Purchases.CreateCheckout)
	auth.GET("/purchases", h.Purchases.ListMine)

	auth.PUT("/lessons/:id/review", h.Reviews.Upsert)
	auth.DELETE("/lessons/:id/review", h.Reviews.DeleteMine)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.RequireRole(users.RoleAdmin))
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/users/:id", h.Admin.GetUserDetails)
	admin.GET("/purchases", h.Admin.ListPurchases)
}
