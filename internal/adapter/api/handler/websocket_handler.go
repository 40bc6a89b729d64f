package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"peertrade/internal/infrastructure/firebase"
	ws "peertrade/internal/infrastructure/websocket"
	"peertrade/pkg/errors"
	"peertrade/pkg/logger"
	"peertrade/pkg/response"
)

type WebSocketHandler struct {
	wsManager  *ws.Manager
	authClient *firebase.AuthClient
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, authClient *firebase.AuthClient) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:  wsManager,
		authClient: authClient,
	}
}

// HandleWebSocket upgrades the connection and registers it with the manager.
// Browsers cannot attach an Authorization header to the upgrade request, so
// the ID token arrives as a query parameter.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.Error(c, errors.Unauthorized("Authentication token is required", nil))
	}

	ctx := c.Request().Context()
	userID, err := h.authClient.VerifyToken(ctx, token)
	if err != nil {
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	username, err := h.authClient.GetDisplayName(ctx, userID)
	if err != nil {
		logger.Warn("websocket: display name lookup failed for %s: %v", userID, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the handshake failure to the client.
		logger.Error("websocket: upgrade failed: %v", err)
		return nil
	}

	client := &ws.Client{
		ConnID:   uuid.New().String(),
		UserID:   userID,
		Username: username,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}
