package handlers

import (
	"bytes"
	"fmt"
	"html"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"outline-tg-bot/internal/commands"
	"outline-tg-bot/internal/config"
	"outline-tg-bot/internal/permissions"
	"outline-tg-bot/internal/services"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	provisioner    *services.Provisioner
	pendingService *services.PendingIntentService
	qrService      *services.QRService
	config         *config.Config
	logger         *logrus.Logger
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(
	provisioner *services.Provisioner,
	pendingService *services.PendingIntentService,
	qrService *services.QRService,
	config *config.Config,
	logger *logrus.Logger,
) BaseHandler {
	return BaseHandler{
		provisioner:    provisioner,
		pendingService: pendingService,
		qrService:      qrService,
		config:         config,
		logger:         logger,
	}
}

// identityOf extracts the provisioning identity from an update
func (h *BaseHandler) identityOf(c telebot.Context) services.Identity {
	return services.Identity{
		UserID:   c.Sender().ID,
		Username: c.Sender().Username,
	}
}

// sendTextMessage sends a text message with optional markup
func (h *BaseHandler) sendTextMessage(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := &telebot.SendOptions{
		ParseMode: telebot.ModeHTML,
	}

	if markup != nil {
		opts.ReplyMarkup = markup
	}

	err := c.Send(text, opts)
	if err != nil {
		h.logger.Errorf("Failed to send message: %v", err)
	}
	return err
}

// sendAccessURL sends a connection URI as a copyable code block
func (h *BaseHandler) sendAccessURL(c telebot.Context, header, accessURL string) error {
	text := fmt.Sprintf("%s\n\n<pre>%s</pre>\nPlease, copy this access key.", header, html.EscapeString(accessURL))
	return h.sendTextMessage(c, text, nil)
}

// sendQRCode sends a QR code for the given URL
func (h *BaseHandler) sendQRCode(c telebot.Context, url string) error {
	qrBytes, err := h.qrService.GenerateQR(url)
	if err != nil {
		h.logger.Errorf("Failed to generate QR code: %v", err)
		return err
	}

	reader := bytes.NewReader(qrBytes)
	photo := &telebot.Photo{File: telebot.FromReader(reader)}

	err = c.Send(photo)
	if err != nil {
		h.logger.Errorf("Failed to send QR code: %v", err)
	}
	return err
}

// showMainMenu shows the persistent main menu for the given access type
func (h *BaseHandler) showMainMenu(c telebot.Context, accessType permissions.AccessType) error {
	return h.sendTextMessage(c, "📋 Main Menu:", h.createMainKeyboard(accessType))
}

// createMainKeyboard creates the main keyboard for the given access type
func (h *BaseHandler) createMainKeyboard(accessType permissions.AccessType) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard: true,
	}

	rows := []telebot.Row{
		{telebot.Btn{Text: commands.GetKeyButton}},
		{telebot.Btn{Text: commands.CheckTrafficButton}},
		{telebot.Btn{Text: commands.HowToUseButton}},
	}

	if accessType == permissions.Admin {
		rows = append(rows, telebot.Row{telebot.Btn{Text: commands.ListKeysButton}})
	}

	markup.Reply(rows...)
	return markup
}
