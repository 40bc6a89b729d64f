package router

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/adapter/api/handler"
)

func SetupWebSocketRouter(e *echo.Echo) {
	websocketHandler := handler.GetWebSocketHandler()

	// Auth happens inside the handler via the token query parameter.
	e.GET("/ws", websocketHandler.HandleWebSocket)
}
