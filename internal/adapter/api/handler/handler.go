package handler

import (
	"peertrade/internal/infrastructure/firebase"
	"peertrade/internal/infrastructure/storage"
	ws "peertrade/internal/infrastructure/websocket"
	"peertrade/internal/usecase"
)

var (
	orderHandler        *OrderHandler
	chatHandler         *ChatHandler
	notificationHandler *NotificationHandler
	adHandler           *AdHandler
	uploadHandler       *UploadHandler
	websocketHandler    *WebSocketHandler
)

func Setup(
	orderUseCase *usecase.OrderUseCase,
	chatUseCase *usecase.ChatUseCase,
	notificationUseCase *usecase.NotificationUseCase,
	adUseCase *usecase.AdUseCase,
	storageClient *storage.CloudStorageClient,
	wsManager *ws.Manager,
	authClient *firebase.AuthClient,
) {
	orderHandler = NewOrderHandler(orderUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	notificationHandler = NewNotificationHandler(notificationUseCase)
	adHandler = NewAdHandler(adUseCase)
	uploadHandler = NewUploadHandler(storageClient, chatUseCase)
	websocketHandler = NewWebSocketHandler(wsManager, authClient)
}

func GetOrderHandler() *OrderHandler {
	return orderHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func GetAdHandler() *AdHandler {
	return adHandler
}

func GetUploadHandler() *UploadHandler {
	return uploadHandler
}

func GetWebSocketHandler() *WebSocketHandler {
	return websocketHandler
}
