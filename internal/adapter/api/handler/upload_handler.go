package handler

import (
	"github.com/labstack/echo/v4"

	"peertrade/internal/infrastructure/storage"
	"peertrade/internal/usecase"
	"peertrade/pkg/errors"
	"peertrade/pkg/response"
)

// 10 MB cap on chat attachments.
const maxUploadBytes = 10 << 20

type UploadHandler struct {
	storageClient *storage.CloudStorageClient
	chatUseCase   *usecase.ChatUseCase
}

func NewUploadHandler(storageClient *storage.CloudStorageClient, chatUseCase *usecase.ChatUseCase) *UploadHandler {
	return &UploadHandler{
		storageClient: storageClient,
		chatUseCase:   chatUseCase,
	}
}

// UploadAttachment stores a chat attachment and returns the file reference
// the client then sends as a file-type message.
func (h *UploadHandler) UploadAttachment(c echo.Context) error {
	orderID := c.FormValue("order_id")
	if orderID == "" {
		return response.Error(c, errors.BadRequest("order_id is required", nil))
	}

	userID := c.Get("uid").(string)

	isParty, err := h.chatUseCase.IsParty(c.Request().Context(), orderID, userID)
	if err != nil {
		return response.Error(c, err)
	}
	if !isParty {
		return response.Error(c, errors.Forbidden("you are not a party to this order", nil))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("file is required", err))
	}
	if fileHeader.Size > maxUploadBytes {
		return response.Error(c, errors.BadRequest("file exceeds the 10MB limit", nil))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer src.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	fileRef, err := h.storageClient.UploadAttachment(c.Request().Context(), src, orderID, fileHeader.Filename, mimeType, fileHeader.Size)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to store attachment", err))
	}

	return response.Created(c, fileRef)
}
