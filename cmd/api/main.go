package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"peertrade/internal/adapter/api"
	"peertrade/internal/adapter/api/handler"
	apimiddleware "peertrade/internal/adapter/api/middleware"
	"peertrade/internal/adapter/api/router"
	"peertrade/internal/adapter/repository"
	"peertrade/internal/infrastructure/firebase"
	"peertrade/internal/infrastructure/ratelimit"
	"peertrade/internal/infrastructure/storage"
	"peertrade/internal/infrastructure/websocket"
	"peertrade/internal/usecase"
	"peertrade/pkg/config"
	"peertrade/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"))
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	adRepo := repository.NewFirestoreAdRepository(firestoreClient)
	orderRepo := repository.NewFirestoreOrderRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)

	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine()

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)
	wsManager.AttachPresence(websocket.NewPresenceTracker(wsManager, cfg.TypingTTL))
	wsManager.AttachLimiter(limiter)

	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, wsManager)
	locks := usecase.NewOrderLocks()
	chatUseCase := usecase.NewChatUseCase(messageRepo, orderRepo, userRepo, notificationUseCase, wsManager, limiter, locks)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, adRepo, userRepo, notificationUseCase, chatUseCase, wsManager, limiter, locks, cfg.PaymentWindow, cfg.CompletionWindow)
	adUseCase := usecase.NewAdUseCase(adRepo, userRepo)

	wsManager.AttachChat(chatUseCase)

	if err := orderUseCase.ResumeDeadlineTimers(ctx); err != nil {
		logger.Error("failed to resume deadline timers: %v", err)
	}

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	handler.Setup(orderUseCase, chatUseCase, notificationUseCase, adUseCase, storageClient, wsManager, firebase.NewAuthClient(authClient))

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestID())

	router.Setup(e, authMiddleware)

	logger.Info("starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
