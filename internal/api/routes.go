package api

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/realtime"
	"coachlink/fitness-platform/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the full REST surface onto the gin engine.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	associationService service.AssociationService,
	planService service.PlanService,
	workoutService service.WorkoutService,
	chatService service.ChatService,
	notificationService service.NotificationService,
	adminService service.AdminService,
	hub *realtime.Hub,
) {
	authHandler := NewAuthHandler(authService)
	clientHandler := NewClientHandler(associationService, planService, workoutService)
	trainerHandler := NewTrainerHandler(associationService, planService, workoutService)
	adminHandler := NewAdminHandler(associationService, adminService)
	chatHandler := NewChatHandler(chatService, notificationService)
	wsHandler := NewWSHandler(hub)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			// Exchange is unauthenticated: the scanned token IS the credential.
			authGroup.POST("/qr/exchange", authHandler.ExchangeLoginToken)
			authGroup.POST("/qr", authMiddleware, authHandler.IssueLoginToken)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Realtime event stream ---
		protected.GET("/ws", wsHandler.Serve)

		// --- Client routes ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.POST("/requests", clientHandler.SubmitRequest)
			clientGroup.GET("/requests", clientHandler.GetMyRequests)
			clientGroup.GET("/plans", clientHandler.GetMyPlans)
			clientGroup.POST("/workouts/photo-url", clientHandler.RequestPhotoUploadURL)
			clientGroup.POST("/workouts", clientHandler.LogWorkout)
			clientGroup.GET("/workouts", clientHandler.GetMyWorkouts)
		}

		// --- Trainer routes ---
		trainerGroup := protected.Group("/trainer")
		trainerGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerGroup.GET("/requests", trainerHandler.GetPendingRequests)
			trainerGroup.POST("/requests/:id/approve", trainerHandler.ApproveRequest)
			trainerGroup.POST("/requests/:id/reject", trainerHandler.RejectRequest)

			trainerGroup.GET("/clients", trainerHandler.GetClients)
			trainerGroup.DELETE("/clients/:clientId", trainerHandler.UnlinkClient)

			trainerGroup.POST("/clients/:clientId/plans", trainerHandler.CreatePlan)
			trainerGroup.GET("/clients/:clientId/plans", trainerHandler.GetClientPlans)
			trainerGroup.POST("/plans/:planId/activate", trainerHandler.ActivatePlan)

			trainerGroup.GET("/clients/:clientId/workouts", trainerHandler.GetClientWorkouts)
		}

		// --- Admin routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/requests", adminHandler.GetPendingChanges)
			adminGroup.POST("/requests/:id/approve", adminHandler.ApproveRequest)
			adminGroup.POST("/requests/:id/reject", adminHandler.RejectRequest)
			adminGroup.DELETE("/requests/:id", adminHandler.DeleteRequest)
			adminGroup.GET("/requests/history", adminHandler.GetRequestHistory)

			adminGroup.GET("/trainers/pending", adminHandler.GetPendingTrainers)
			adminGroup.POST("/trainers/:id/validate", adminHandler.ValidateTrainer)
			adminGroup.PUT("/trainers/:id/capacity", adminHandler.SetTrainerCapacity)

			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.DELETE("/clients/:clientId/trainer", adminHandler.UnlinkClient)

			adminGroup.GET("/stats", adminHandler.GetStats)
		}

		// --- Chat & notifications (any authenticated role) ---
		chatGroup := protected.Group("/chat")
		{
			chatGroup.POST("/messages", chatHandler.SendMessage)
			chatGroup.GET("/conversations/:userId", chatHandler.GetConversation)
		}

		notificationGroup := protected.Group("/notifications")
		{
			notificationGroup.GET("", chatHandler.GetNotifications)
			notificationGroup.POST("/:id/read", chatHandler.MarkNotificationRead)
		}
	}
}
