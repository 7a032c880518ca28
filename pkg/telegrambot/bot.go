package telegrambot

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	telebot "gopkg.in/telebot.v3"

	"outline-tg-bot/internal/config"
	"outline-tg-bot/internal/handlers"
	"outline-tg-bot/internal/permissions"
)

// Bot represents a Telegram bot
type Bot struct {
	bot      *telebot.Bot
	config   *config.Config
	handlers map[permissions.AccessType]handlers.MessageHandler
	permCtrl *permissions.Controller
	logger   *logrus.Logger
}

// NewBot creates a new Telegram bot.
// Handlers are wired afterwards via SetupHandlers because the permission
// controller needs the bot's chat-member lookups before handlers exist.
func NewBot(cfg *config.Config, logger *logrus.Logger) (*Bot, error) {
	settings := telebot.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			logger.Errorf("Telegram bot error: %v", err)
			if c != nil {
				c.Send("An error occurred. Please try again later.")
			}
		},
	}

	b, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return &Bot{
		bot:      b,
		config:   cfg,
		handlers: make(map[permissions.AccessType]handlers.MessageHandler),
		logger:   logger,
	}, nil
}

// ChatMembers returns a chat-member source backed by this bot
func (b *Bot) ChatMembers() permissions.ChatMemberSource {
	return &chatMemberAdapter{bot: b.bot}
}

// SetupHandlers builds the per-access handlers and registers the routes
func (b *Bot) SetupHandlers(factory *handlers.HandlerFactory, permCtrl *permissions.Controller) {
	b.permCtrl = permCtrl
	b.handlers[permissions.Admin] = factory.CreateHandler(permissions.Admin)
	b.handlers[permissions.Member] = factory.CreateHandler(permissions.Member)

	b.bot.Use(func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			b.logger.Infof("Received update from %d: %s", c.Sender().ID, c.Text())
			return next(c)
		}
	})

	b.bot.Handle(telebot.OnText, b.handleUpdate)
	b.bot.Handle(telebot.OnCallback, b.handleUpdate)
	b.bot.Handle("/start", b.handleUpdate)
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting Telegram bot")

	go func() {
		<-ctx.Done()
		b.logger.Info("Stopping Telegram bot")
		b.bot.Stop()
	}()

	b.bot.Start()
	return nil
}

// handleUpdate handles an update from Telegram
func (b *Bot) handleUpdate(c telebot.Context) error {
	accessType := b.permCtrl.GetAccessType(c.Sender().ID)

	handler, ok := b.handlers[accessType]
	if !ok {
		b.logger.Warnf("No handler for access type %d", accessType)
		return nil
	}

	return handler.Handle(context.Background(), c)
}

// chatMemberAdapter adapts telebot's chat member lookup to the
// permissions.ChatMemberSource interface
type chatMemberAdapter struct {
	bot *telebot.Bot
}

// MemberStatus returns the user's membership status in the chat
func (a *chatMemberAdapter) MemberStatus(_ context.Context, chatID, userID int64) (string, error) {
	member, err := a.bot.ChatMemberOf(&telebot.Chat{ID: chatID}, &telebot.User{ID: userID})
	if err != nil {
		return "", err
	}

	return string(member.Role), nil
}
