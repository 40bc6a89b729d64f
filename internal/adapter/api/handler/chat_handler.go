package handler

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/domain/entity"
	"peertrade/internal/usecase"
	"peertrade/pkg/errors"
	"peertrade/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type sendMessageRequest struct {
	Body string          `json:"body"`
	Type string          `json:"type" validate:"omitempty,oneof=text file"`
	File *entity.FileRef `json:"file,omitempty"`
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	orderID := c.Param("id")
	if orderID == "" {
		return response.Error(c, errors.BadRequest("Order ID is required", nil))
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), orderID, userID, req.Body, req.Type, req.File)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	orderID := c.Param("id")
	if orderID == "" {
		return response.Error(c, errors.BadRequest("Order ID is required", nil))
	}

	userID := c.Get("uid").(string)

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), orderID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}
