package router

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/adapter/api/handler"
	"peertrade/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	notificationHandler := handler.GetNotificationHandler()

	notifications := e.Group("/v1/notifications")
	notifications.Use(authMiddleware.Authenticate)

	notifications.GET("", notificationHandler.ListNotifications)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.PATCH("/:id/read", notificationHandler.MarkRead)
	notifications.POST("/mark-all-read", notificationHandler.MarkAllRead)
	notifications.DELETE("", notificationHandler.ClearAll)
}
