package handlers

import (
	"context"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"outline-tg-bot/internal/config"
	"outline-tg-bot/internal/permissions"
	"outline-tg-bot/internal/services"
)

// MessageHandler defines the interface for handling Telegram messages
type MessageHandler interface {
	Handle(ctx context.Context, c telebot.Context) error
	CanHandle(accessType permissions.AccessType) bool
}

// HandlerFactory creates message handlers
type HandlerFactory struct {
	provisioner    *services.Provisioner
	pendingService *services.PendingIntentService
	qrService      *services.QRService
	config         *config.Config
	logger         *logrus.Logger
}

// NewHandlerFactory creates a new handler factory
func NewHandlerFactory(
	provisioner *services.Provisioner,
	pendingService *services.PendingIntentService,
	qrService *services.QRService,
	config *config.Config,
	logger *logrus.Logger,
) *HandlerFactory {
	return &HandlerFactory{
		provisioner:    provisioner,
		pendingService: pendingService,
		qrService:      qrService,
		config:         config,
		logger:         logger,
	}
}

// CreateHandler creates a message handler for the given access type
func (f *HandlerFactory) CreateHandler(accessType permissions.AccessType) MessageHandler {
	switch accessType {
	case permissions.Admin:
		return NewAdminHandler(f.provisioner, f.pendingService, f.qrService, f.config, f.logger)
	default:
		return NewMemberHandler(f.provisioner, f.pendingService, f.qrService, f.config, f.logger)
	}
}
