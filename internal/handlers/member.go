package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"outline-tg-bot/internal/commands"
	"outline-tg-bot/internal/config"
	"outline-tg-bot/internal/helpers"
	"outline-tg-bot/internal/permissions"
	"outline-tg-bot/internal/services"
)

// MemberHandler handles commands from regular group members
type MemberHandler struct {
	BaseHandler
	menuAccess      permissions.AccessType
	commandHandlers map[string]func(context.Context, telebot.Context) error
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(
	provisioner *services.Provisioner,
	pendingService *services.PendingIntentService,
	qrService *services.QRService,
	config *config.Config,
	logger *logrus.Logger,
) *MemberHandler {
	handler := &MemberHandler{
		BaseHandler: NewBaseHandler(provisioner, pendingService, qrService, config, logger),
		menuAccess:  permissions.Member,
	}

	handler.initializeCommands()
	return handler
}

// CanHandle checks if the handler can handle the given access type
func (h *MemberHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.Member
}

// Handle handles a message from Telegram
func (h *MemberHandler) Handle(ctx context.Context, c telebot.Context) error {
	// Members have no inline keyboards, so callbacks carry nothing for them
	if c.Callback() != nil {
		return nil
	}

	if handler, ok := h.commandHandlers[c.Text()]; ok {
		return handler(ctx, c)
	}

	// Unrecognized text falls back to the menu. Admin-only commands land
	// here too for non-admins, which keeps them silently ignored.
	return h.handleStart(ctx, c)
}

// initializeCommands initializes the command handlers
func (h *MemberHandler) initializeCommands() {
	h.commandHandlers = map[string]func(context.Context, telebot.Context) error{
		commands.Start:              h.handleStart,
		commands.Menu:               h.handleStart,
		commands.GetKey:             h.handleGetKey,
		commands.AddKey:             h.handleGetKey,
		commands.GetKeyButton:       h.handleGetKey,
		commands.CheckTrafficButton: h.handleCheckTraffic,
		commands.HowToUseButton:     h.handleHowToUse,
	}
}

// handleStart shows the main menu
func (h *MemberHandler) handleStart(_ context.Context, c telebot.Context) error {
	return h.showMainMenu(c, h.menuAccessType())
}

// handleGetKey issues an access key for the sender, or returns the existing one
func (h *MemberHandler) handleGetKey(ctx context.Context, c telebot.Context) error {
	key, err := h.provisioner.IssueKey(ctx, h.identityOf(c))

	switch {
	case errors.Is(err, services.ErrNotMember):
		h.sendTextMessage(c, "🚫 You are not part of the allowed group.", nil)
	case errors.Is(err, services.ErrQuotaExceeded):
		h.sendTextMessage(c, "🚫 The total traffic limit for this month has been reached.", nil)
	case err != nil:
		h.logger.Errorf("Failed to issue key for user %d: %v", c.Sender().ID, err)
		h.sendTextMessage(c, "⚠️ Error creating VPN key.", nil)
	default:
		if err := h.sendAccessURL(c, "✅ Your VPN key:", key.AccessURL); err != nil {
			return err
		}
		h.sendQRCode(c, key.AccessURL)
	}

	return h.showMainMenu(c, h.menuAccessType())
}

// handleCheckTraffic reports the sender's traffic usage
func (h *MemberHandler) handleCheckTraffic(ctx context.Context, c telebot.Context) error {
	bytes, err := h.provisioner.Usage(ctx, h.identityOf(c))

	switch {
	case errors.Is(err, services.ErrNoKey):
		h.sendTextMessage(c, "You don't have a VPN key yet.", nil)
	case err != nil:
		h.logger.Errorf("Failed to fetch usage for user %d: %v", c.Sender().ID, err)
		h.sendTextMessage(c, "⚠️ An error occurred. Please try again later.", nil)
	default:
		h.sendTextMessage(c, fmt.Sprintf("📊 Your traffic usage: %s GB", helpers.FormatGiB(bytes)), nil)
	}

	return h.showMainMenu(c, h.menuAccessType())
}

// handleHowToUse sends the client setup guide with the sender's key interpolated
func (h *MemberHandler) handleHowToUse(ctx context.Context, c telebot.Context) error {
	accessURL, err := h.provisioner.AccessURL(ctx, h.identityOf(c))

	switch {
	case errors.Is(err, services.ErrNoKey):
		h.sendTextMessage(c, "You don't have a VPN key yet.", nil)
	case err != nil:
		h.logger.Errorf("Failed to fetch access URL for user %d: %v", c.Sender().ID, err)
		h.sendTextMessage(c, "⚠️ An error occurred. Please try again later.", nil)
	default:
		h.sendTextMessage(c, usageInstructions(accessURL), nil)
	}

	return h.showMainMenu(c, h.menuAccessType())
}

// menuAccessType reports which menu this handler re-shows after an action
func (h *MemberHandler) menuAccessType() permissions.AccessType {
	return h.menuAccess
}

// usageInstructions renders the Outline client setup guide
func usageInstructions(accessURL string) string {
	return fmt.Sprintf(`Use this server to safely access the open internet:

1) Download and install the Outline app for your device:

- iOS: https://itunes.apple.com/app/outline-app/id1356177741
- MacOS: https://itunes.apple.com/app/outline-app/id1356178125
- Windows: https://s3.amazonaws.com/outline-releases/client/windows/stable/Outline-Client.exe
- Linux: https://s3.amazonaws.com/outline-releases/client/linux/stable/Outline-Client.AppImage
- Android: https://play.google.com/store/apps/details?id=org.outline.android.client
- Android alternative link: https://s3.amazonaws.com/outline-releases/client/android/stable/Outline-Client.apk

2) Here is your access key:
<pre>%s</pre>
Please, copy this access key.

3) Open the Outline client app. If your access key is auto-detected, tap "Connect" and proceed. If your access key is not auto-detected, then paste it in the field, then tap "Connect" and proceed.

You're ready to use the open internet! To make sure you successfully connected to the server, try searching for "what is my ip" on Google Search. The IP address shown in Google should match the IP address in the Outline client.`, html.EscapeString(accessURL))
}
