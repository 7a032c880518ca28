package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"outline-tg-bot/internal/config"
	"outline-tg-bot/internal/handlers"
	"outline-tg-bot/internal/permissions"
	"outline-tg-bot/internal/services"
	"outline-tg-bot/pkg/outlineclient"
	"outline-tg-bot/pkg/telegrambot"
)

func main() {
	// Setup logger
	logger := setupLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration:", err)
	}

	// Initialize bot first: group membership checks go through it
	bot, err := telegrambot.NewBot(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create bot:", err)
	}

	// Initialize Outline client and services
	client, err := outlineclient.NewClient(cfg.Outline, logger)
	if err != nil {
		logger.Fatal("Failed to create Outline client:", err)
	}

	permController := permissions.NewController(cfg.Telegram.AdminID, cfg.Telegram.AllowedChatID, bot.ChatMembers(), logger)
	provisioner := services.NewProvisioner(client, permController, cfg.Outline, logger)
	pendingService := services.NewPendingIntentService(logger)
	qrService := services.NewQRService(logger)

	// Wire handlers
	factory := handlers.NewHandlerFactory(provisioner, pendingService, qrService, cfg, logger)
	bot.SetupHandlers(factory, permController)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	// Start bot
	logger.Info("Starting Outline VPN Telegram bot")
	if err := bot.Start(ctx); err != nil {
		logger.Fatal("Bot failed:", err)
	}
}

// setupLogger sets up the logger
func setupLogger() *logrus.Logger {
	logger := logrus.New()

	// Set log level from environment variable or default to info
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Printf("Invalid log level %s, defaulting to info", logLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	// Set formatter
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger
}
