package router

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/adapter/api/handler"
	"peertrade/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	messages := e.Group("/v1/orders/:id/messages")
	messages.Use(authMiddleware.Authenticate)

	messages.GET("", chatHandler.ListMessages)
	messages.POST("", chatHandler.SendMessage)
}
