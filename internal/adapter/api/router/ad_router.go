package router

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/adapter/api/handler"
	"peertrade/internal/adapter/api/middleware"
)

func SetupAdRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	adHandler := handler.GetAdHandler()

	// The marketplace is public; everything else needs auth.
	e.GET("/v1/ads", adHandler.ListMarketplace)
	e.GET("/v1/ads/:id", adHandler.GetAd)

	ads := e.Group("/v1/ads")
	ads.Use(authMiddleware.Authenticate)

	ads.POST("", adHandler.CreateAd)
	ads.GET("/my", adHandler.ListMyAds)
	ads.PATCH("/:id", adHandler.UpdateAd)
	ads.DELETE("/:id", adHandler.DeleteAd)
}
