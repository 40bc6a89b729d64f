package handler

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/usecase"
	"peertrade/pkg/errors"
	"peertrade/pkg/response"
	"peertrade/pkg/utils"
)

type AdHandler struct {
	adUseCase *usecase.AdUseCase
}

func NewAdHandler(adUseCase *usecase.AdUseCase) *AdHandler {
	return &AdHandler{
		adUseCase: adUseCase,
	}
}

type createAdRequest struct {
	Type            string   `json:"type" validate:"required,oneof=buy sell"`
	CurrencyFrom    string   `json:"currency_from" validate:"required"`
	CurrencyTo      string   `json:"currency_to" validate:"required"`
	ExchangeRate    float64  `json:"exchange_rate" validate:"required,gt=0"`
	AmountAvailable float64  `json:"amount_available" validate:"required,gt=0"`
	MinAmount       float64  `json:"min_amount" validate:"omitempty,gte=0"`
	MaxAmount       float64  `json:"max_amount" validate:"omitempty,gte=0"`
	PaymentMethods  []string `json:"payment_methods"`
}

type updateAdRequest struct {
	ExchangeRate    *float64 `json:"exchange_rate,omitempty"`
	AmountAvailable *float64 `json:"amount_available,omitempty"`
	MinAmount       *float64 `json:"min_amount,omitempty"`
	MaxAmount       *float64 `json:"max_amount,omitempty"`
	PaymentMethods  []string `json:"payment_methods,omitempty"`
	Status          *string  `json:"status,omitempty"`
}

func (h *AdHandler) CreateAd(c echo.Context) error {
	var req createAdRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	ad, err := h.adUseCase.CreateAd(c.Request().Context(), userID, usecase.CreateAdInput{
		Type:            req.Type,
		CurrencyFrom:    req.CurrencyFrom,
		CurrencyTo:      req.CurrencyTo,
		ExchangeRate:    req.ExchangeRate,
		AmountAvailable: req.AmountAvailable,
		MinAmount:       req.MinAmount,
		MaxAmount:       req.MaxAmount,
		PaymentMethods:  req.PaymentMethods,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, ad)
}

func (h *AdHandler) GetAd(c echo.Context) error {
	adID := c.Param("id")
	if adID == "" {
		return response.Error(c, errors.BadRequest("Ad ID is required", nil))
	}

	ad, err := h.adUseCase.GetAd(c.Request().Context(), adID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ad)
}

func (h *AdHandler) ListMarketplace(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	ads, total, err := h.adUseCase.ListMarketplace(c.Request().Context(), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, ads, total, pagination.Page, pagination.PageSize)
}

func (h *AdHandler) ListMyAds(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	ads, total, err := h.adUseCase.ListMyAds(c.Request().Context(), userID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, ads, total, pagination.Page, pagination.PageSize)
}

func (h *AdHandler) UpdateAd(c echo.Context) error {
	adID := c.Param("id")
	if adID == "" {
		return response.Error(c, errors.BadRequest("Ad ID is required", nil))
	}

	var req updateAdRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	ad, err := h.adUseCase.UpdateAd(c.Request().Context(), adID, userID, usecase.UpdateAdInput{
		ExchangeRate:    req.ExchangeRate,
		AmountAvailable: req.AmountAvailable,
		MinAmount:       req.MinAmount,
		MaxAmount:       req.MaxAmount,
		PaymentMethods:  req.PaymentMethods,
		Status:          req.Status,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ad)
}

func (h *AdHandler) DeleteAd(c echo.Context) error {
	adID := c.Param("id")
	if adID == "" {
		return response.Error(c, errors.BadRequest("Ad ID is required", nil))
	}

	userID := c.Get("uid").(string)

	if err := h.adUseCase.DeleteAd(c.Request().Context(), adID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{"deleted": true})
}
