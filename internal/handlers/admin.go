package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"outline-tg-bot/internal/commands"
	"outline-tg-bot/internal/config"
	"outline-tg-bot/internal/helpers"
	"outline-tg-bot/internal/models"
	"outline-tg-bot/internal/permissions"
	"outline-tg-bot/internal/services"
)

// AdminHandler handles administrator commands on top of the member set
type AdminHandler struct {
	*MemberHandler
	adminCommands map[string]func(context.Context, telebot.Context) error
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	provisioner *services.Provisioner,
	pendingService *services.PendingIntentService,
	qrService *services.QRService,
	config *config.Config,
	logger *logrus.Logger,
) *AdminHandler {
	member := NewMemberHandler(provisioner, pendingService, qrService, config, logger)
	member.menuAccess = permissions.Admin

	handler := &AdminHandler{
		MemberHandler: member,
	}

	handler.initializeAdminCommands()
	return handler
}

// CanHandle checks if the handler can handle the given access type
func (h *AdminHandler) CanHandle(accessType permissions.AccessType) bool {
	return accessType == permissions.Admin
}

// Handle handles a message from Telegram
func (h *AdminHandler) Handle(ctx context.Context, c telebot.Context) error {
	if c.Callback() != nil {
		return h.handleCallback(ctx, c)
	}

	text := c.Text()

	// Commands that take an inline argument, e.g. "/removekey 3".
	// A fresh command supersedes any prompt still awaiting its argument.
	if cmd, arg, ok := splitCommandArg(text); ok {
		switch cmd {
		case commands.RemoveKey:
			h.pendingService.Clear(c.Chat().ID)
			return h.handleRemoveKeyByID(ctx, c, arg)
		case commands.KeyInfo:
			h.pendingService.Clear(c.Chat().ID)
			return h.handleKeyInfoByID(ctx, c, arg)
		}
	}

	if handler, ok := h.adminCommands[text]; ok {
		h.pendingService.Clear(c.Chat().ID)
		return handler(ctx, c)
	}

	if handler, ok := h.commandHandlers[text]; ok {
		h.pendingService.Clear(c.Chat().ID)
		return handler(ctx, c)
	}

	// Free text may be the argument a previous prompt is waiting for
	switch h.pendingService.Consume(c.Chat().ID) {
	case models.AwaitingRemoveKeyID:
		return h.handleRemoveKeyByID(ctx, c, strings.TrimSpace(text))
	case models.AwaitingKeyInfoID:
		return h.handleKeyInfoByID(ctx, c, strings.TrimSpace(text))
	}

	return h.handleStart(ctx, c)
}

// initializeAdminCommands initializes the admin command handlers
func (h *AdminHandler) initializeAdminCommands() {
	h.adminCommands = map[string]func(context.Context, telebot.Context) error{
		commands.ListKeys:       h.handleListKeys,
		commands.ListKeysButton: h.handleListKeys,
		commands.RemoveKey:      h.handleRemoveKeyPrompt,
		commands.KeyInfo:        h.handleKeyInfoPrompt,
	}
}

// handleListKeys lists every access key with a remove button per key
func (h *AdminHandler) handleListKeys(ctx context.Context, c telebot.Context) error {
	keys, err := h.provisioner.ListKeys(ctx)
	if err != nil {
		h.logger.Errorf("Failed to list keys: %v", err)
		return h.sendTextMessage(c, "⚠️ An error occurred. Please try again later.", nil)
	}

	if len(keys) == 0 {
		return h.sendTextMessage(c, "No VPN keys issued yet.", nil)
	}

	keyboard := make([][]telebot.InlineButton, 0, len(keys))
	for _, key := range keys {
		keyboard = append(keyboard, []telebot.InlineButton{
			{
				Text: fmt.Sprintf("❌ Remove Key: %s", key.Name),
				Data: commands.RemoveKeyCallbackPrefix + key.ID,
			},
		})
	}

	return c.Send("🔑 List of all VPN keys:", &telebot.ReplyMarkup{InlineKeyboard: keyboard})
}

// handleRemoveKeyPrompt asks for the key id and awaits the next message
func (h *AdminHandler) handleRemoveKeyPrompt(_ context.Context, c telebot.Context) error {
	h.pendingService.Set(c.Chat().ID, models.AwaitingRemoveKeyID)
	return h.sendTextMessage(c, "Send the id of the key to remove:", nil)
}

// handleKeyInfoPrompt asks for the key id and awaits the next message
func (h *AdminHandler) handleKeyInfoPrompt(_ context.Context, c telebot.Context) error {
	h.pendingService.Set(c.Chat().ID, models.AwaitingKeyInfoID)
	return h.sendTextMessage(c, "Send the id of the key to inspect:", nil)
}

// handleRemoveKeyByID deletes the given key and confirms
func (h *AdminHandler) handleRemoveKeyByID(ctx context.Context, c telebot.Context, id string) error {
	if id == "" {
		return h.sendTextMessage(c, "Key id must not be empty.", nil)
	}

	if err := h.provisioner.RemoveKey(ctx, id); err != nil {
		h.logger.Errorf("Failed to remove key %s: %v", id, err)
		h.sendTextMessage(c, "⚠️ An error occurred. Please try again later.", nil)
		return h.showMainMenu(c, permissions.Admin)
	}

	h.sendTextMessage(c, fmt.Sprintf("✅ VPN key %s has been removed.", html.EscapeString(id)), nil)
	return h.showMainMenu(c, permissions.Admin)
}

// handleKeyInfoByID shows the full remote record of the given key
func (h *AdminHandler) handleKeyInfoByID(ctx context.Context, c telebot.Context, id string) error {
	if id == "" {
		return h.sendTextMessage(c, "Key id must not be empty.", nil)
	}

	key, err := h.provisioner.DescribeKey(ctx, id)
	if err != nil {
		h.logger.Errorf("Failed to describe key %s: %v", id, err)
		h.sendTextMessage(c, "⚠️ An error occurred. Please try again later.", nil)
		return h.showMainMenu(c, permissions.Admin)
	}

	bytes, err := h.provisioner.UsageByID(ctx, id)
	if err != nil {
		h.logger.Errorf("Failed to fetch usage for key %s: %v", id, err)
		h.sendTextMessage(c, "⚠️ An error occurred. Please try again later.", nil)
		return h.showMainMenu(c, permissions.Admin)
	}

	text := fmt.Sprintf("<b>Key %s</b>\nName: %s\nPort: %d\nMethod: %s\nUsed: %s GB\n<pre>%s</pre>",
		html.EscapeString(key.ID),
		html.EscapeString(key.Name),
		key.Port,
		html.EscapeString(key.Method),
		helpers.FormatGiB(bytes),
		html.EscapeString(key.AccessURL))

	h.sendTextMessage(c, text, nil)
	return h.showMainMenu(c, permissions.Admin)
}

// handleCallback handles inline button callbacks
func (h *AdminHandler) handleCallback(ctx context.Context, c telebot.Context) error {
	data := strings.TrimSpace(c.Callback().Data)

	if strings.HasPrefix(data, commands.RemoveKeyCallbackPrefix) {
		id := strings.TrimPrefix(data, commands.RemoveKeyCallbackPrefix)
		if err := h.handleRemoveKeyByID(ctx, c, id); err != nil {
			return err
		}
		// Stop the button spinner once the removal is handled
		return c.Respond()
	}

	h.logger.Warnf("Unknown callback payload: %s", data)
	return c.Respond()
}

// splitCommandArg splits "/cmd arg" into its parts
func splitCommandArg(text string) (cmd, arg string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
