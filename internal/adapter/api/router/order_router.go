package router

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/adapter/api/handler"
	"peertrade/internal/adapter/api/middleware"
)

func SetupOrderRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	orderHandler := handler.GetOrderHandler()

	orders := e.Group("/v1/orders")
	orders.Use(authMiddleware.Authenticate)

	orders.POST("", orderHandler.CreateOrder)
	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)
	orders.POST("/:id/transition", orderHandler.Transition)
	orders.GET("/:id/logs", orderHandler.ListLogs)
}
