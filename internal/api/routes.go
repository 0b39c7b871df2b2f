package api

import (
	"chatroom-backend/internal/chat"
	"chatroom-backend/internal/config"
	"chatroom-backend/internal/middleware"
	"chatroom-backend/internal/storage"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, store *chat.Store, cfg *config.Config) {
	server := NewServer(store, cfg)

	blobStorage := storage.NewSupabaseStorage(cfg.Storage.URL, cfg.Storage.ServiceRoleKey)
	uploadHandler := NewUploadHandler(store, blobStorage, &UploadConfig{
		FileBucket:  cfg.Storage.FileBucket,
		ImageBucket: cfg.Storage.ImageBucket,
	})

	router.Use(middleware.CORSSpecific(cfg.GetCORSOrigins()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "chatroom-backend",
		})
	})

	v1 := router.Group("/api/v1")
	{
		// Auth routes (no authentication required)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", server.Register)
			auth.POST("/login", server.Login)
		}

		// Protected routes (authentication required)
		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware(store))
		{
			protected.POST("/auth/logout", server.Logout)
			protected.PUT("/auth/password", server.ChangePassword)
			protected.DELETE("/auth/account", server.DeleteAccount)

			protected.GET("/profile", server.GetProfile)
			protected.PUT("/profile", server.UpdateProfile)

			// Shared public channel
			public := protected.Group("/chat/public")
			{
				public.GET("", server.GetPublicMessages)
				public.POST("", server.PostPublicMessage)
				public.PUT("/:id", server.EditPublicMessage)
				public.DELETE("/:id", server.DeletePublicMessage)
			}

			// Private messages
			private := protected.Group("/chat/private")
			{
				private.GET("", server.GetConversation)
				private.POST("", server.SendPrivateMessage)
				private.POST("/:id/read", server.MarkMessageRead)
			}
			protected.GET("/chat/contacts", server.GetContacts)
			protected.GET("/chat/unread-count", server.GetUnreadCount)

			// Group chatrooms
			groups := protected.Group("/groups")
			{
				groups.GET("", server.GetGroups)
				groups.POST("", server.CreateGroup)
				groups.POST("/:id/join", server.JoinGroup)
				groups.POST("/:id/leave", server.LeaveGroup)
				groups.DELETE("/:id", server.DeactivateGroup)
				groups.GET("/:id/messages", server.GetGroupMessages)
				groups.POST("/:id/messages", server.PostGroupMessage)
				groups.POST("/:id/read", server.MarkGroupRead)
			}

			// Uploads
			protected.POST("/chat/upload", uploadHandler.UploadFile)
			protected.GET("/chat/uploads", uploadHandler.GetUploads)
		}
	}
}
