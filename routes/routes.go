package routes

import (
	"logbook-api/controllers"
	"logbook-api/middleware"
	"logbook-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Logbook API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Logbooks
			logbooks := protected.Group("/logbooks")
			{
				logbooks.GET("", controllers.GetLogbooks)
				logbooks.GET("/:id", controllers.GetLogbook)
				logbooks.GET("/:id/audit", controllers.GetAuditTrail)
				logbooks.GET("/:id/comments", controllers.GetComments)
				logbooks.POST("/:id/comments", controllers.AddComment)
				logbooks.GET("/:id/entries", controllers.GetEntries)

				// Only trainees create, fill in and submit their logbooks
				logbooks.POST("", middleware.RequireRole(models.RoleTrainee), controllers.CreateLogbook)
				logbooks.POST("/:id/entries", middleware.RequireRole(models.RoleTrainee), controllers.CreateEntry)
				logbooks.POST("/:id/ready", middleware.RequireRole(models.RoleTrainee), controllers.MarkLogbookReady)
				logbooks.POST("/:id/submit", middleware.RequireRole(models.RoleTrainee), controllers.SubmitLogbook)
				logbooks.POST("/:id/regenerate", middleware.RequireRole(models.RoleTrainee), controllers.RegenerateLogbook)

				// Only supervisors review
				logbooks.POST("/:id/review", middleware.RequireRole(models.RoleSupervisor, models.RoleAdmin), controllers.ReviewLogbook)

				// Unlock workflow
				logbooks.POST("/:id/unlock-request", middleware.RequireRole(models.RoleTrainee), controllers.CreateUnlockRequest)
				logbooks.GET("/:id/unlock-requests", controllers.GetUnlockRequests)
			}

			// Entries addressed directly
			entries := protected.Group("/entries")
			{
				entries.PUT("/:id", middleware.RequireRole(models.RoleTrainee), controllers.UpdateEntry)
				entries.DELETE("/:id", middleware.RequireRole(models.RoleTrainee), controllers.DeleteEntry)
			}

			// Review queue
			protected.GET("/review-queue", middleware.RequireRole(models.RoleSupervisor, models.RoleAdmin), controllers.GetReviewQueue)

			// Unlock decisions
			protected.POST("/unlock-requests/:id/decision", middleware.RequireRole(models.RoleSupervisor, models.RoleAdmin), controllers.DecideUnlockRequest)

			// Dashboard
			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/stats", controllers.GetDashboardStats)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
			}
		}
	}
}
