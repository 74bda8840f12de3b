package main

import (
	"fmt"
	"log"
	"time"

	"carelink-messaging/config"
	"carelink-messaging/internal/domain/broadcast"
	"carelink-messaging/internal/domain/conversation"
	"carelink-messaging/internal/domain/message"
	"carelink-messaging/internal/handler"
	"carelink-messaging/internal/repository"
	"carelink-messaging/internal/server"
	"carelink-messaging/internal/services"
	"carelink-messaging/pkg/database"
	"carelink-messaging/pkg/events"
	"carelink-messaging/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&conversation.Conversation{},
		&conversation.Participant{},
		&message.Message{},
		&message.MessageRecipient{},
		&message.MessageReceipt{},
		&broadcast.BroadcastMessage{},
		&broadcast.BroadcastRecipient{},
		&broadcast.BroadcastReceipt{},
	); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	broker := events.NewRedisBroker(
		fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		cfg.RedisPassword,
		cfg.RedisDB,
	)

	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	broadcastRepo := repository.NewBroadcastRepository(db)

	conversationService := services.NewConversationService(conversationRepo)
	messageService := services.NewMessageService(db, messageRepo, conversationService, broker, l)
	broadcastService := services.NewBroadcastService(broadcastRepo, broker, l)

	scheduler := services.NewBroadcastScheduler(
		broadcastService,
		l,
		time.Duration(cfg.SchedulerIntervalSec)*time.Second,
	)
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(cfg, l, db)
	srv.SetupRoutes(&server.Handlers{
		Conversations: handler.NewConversationHandler(conversationService, messageService),
		Messages:      handler.NewMessageHandler(messageService),
		Broadcasts:    handler.NewBroadcastHandler(broadcastService),
	})

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
