package router

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/adapter/api/handler"
	"peertrade/internal/adapter/api/middleware"
)

func SetupFileRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	uploadHandler := handler.GetUploadHandler()

	e.POST("/v1/upload", uploadHandler.UploadAttachment, authMiddleware.Authenticate)
}
