package routes

import (
	"github.com/gin-gonic/gin"

	"residency-application-api/controllers"
	"residency-application-api/middleware"
	"residency-application-api/models"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Residency Application API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Applications
			applications := protected.Group("/applications")
			{
				applications.GET("", controllers.GetApplications)
				applications.GET("/:id", controllers.GetApplication)
				applications.GET("/:id/history", controllers.GetStatusHistory)

				// Owners create, edit, submit and delete their drafts
				applications.POST("", middleware.RequireRole(models.RoleApplicant), controllers.CreateApplication)
				applications.PUT("/:id", middleware.RequireRole(models.RoleApplicant), controllers.UpdateApplication)
				applications.DELETE("/:id", middleware.RequireRole(models.RoleApplicant), controllers.DeleteApplication)
				applications.POST("/:id/submit", middleware.RequireRole(models.RoleApplicant), controllers.SubmitApplication)

				// Staff drive the review workflow
				applications.POST("/:id/status", middleware.RequireRole(models.RoleStaff), controllers.TransitionApplicationStatus)
				applications.POST("/:id/edits", middleware.RequireRole(models.RoleStaff), controllers.ApplyEdit)
				applications.GET("/:id/edits", controllers.GetEditRecords)

				// Owner revision requests
				applications.POST("/:id/edit-requests", middleware.RequireRole(models.RoleApplicant), controllers.CreateEditRequest)
				applications.GET("/:id/edit-requests", controllers.GetEditRequests)
			}

			// Edit requests (staff resolution)
			protected.PUT("/edit-requests/:id/resolve", middleware.RequireRole(models.RoleStaff), controllers.ResolveEditRequest)

			// Documents
			documents := protected.Group("/documents")
			{
				documents.POST("/upload/:id", controllers.UploadDocument)
				documents.GET("/application/:id", controllers.GetDocuments)
				documents.GET("/application/:id/history/:file_type", controllers.GetDocumentHistory)
				documents.GET("/download/:document_id", controllers.DownloadDocument)
			}

			// Dashboard
			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/stats", controllers.GetDashboardStats)
			}
		}
	}
}
