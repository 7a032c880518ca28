package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"outline-tg-bot/internal/constants"
	"outline-tg-bot/internal/models"
)

// PendingIntentService holds the per-chat intent awaiting a free-text
// argument. Entries expire so an abandoned prompt cannot swallow an
// unrelated message minutes later.
type PendingIntentService struct {
	mu     sync.Mutex
	cache  *cache.Cache
	logger *logrus.Logger
}

// NewPendingIntentService creates a new pending intent service
func NewPendingIntentService(logger *logrus.Logger) *PendingIntentService {
	return newPendingIntentService(
		constants.PendingIntentTTL*time.Minute,
		constants.PendingIntentCleanupInterval*time.Minute,
		logger,
	)
}

// newPendingIntentService creates a pending intent service with a custom TTL
func newPendingIntentService(ttl, cleanupInterval time.Duration, logger *logrus.Logger) *PendingIntentService {
	return &PendingIntentService{
		cache:  cache.New(ttl, cleanupInterval),
		logger: logger,
	}
}

// Set records the intent awaiting the next message from the chat
func (s *PendingIntentService) Set(chatID int64, intent models.PendingIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(s.key(chatID), intent, cache.DefaultExpiration)
	s.logger.Debugf("Set pending intent for chat %d: %d", chatID, intent)
}

// Consume returns and clears the chat's pending intent. The get and the
// delete happen under one lock so concurrent messages from the same chat
// cannot both claim the intent.
func (s *PendingIntentService) Consume(chatID int64) models.PendingIntent {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(chatID)

	data, found := s.cache.Get(key)
	if !found {
		return models.NoPendingIntent
	}

	s.cache.Delete(key)

	intent, ok := data.(models.PendingIntent)
	if !ok {
		s.logger.Errorf("Invalid pending intent type for chat %d", chatID)
		return models.NoPendingIntent
	}

	return intent
}

// Clear drops the chat's pending intent
func (s *PendingIntentService) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(s.key(chatID))
}

func (s *PendingIntentService) key(chatID int64) string {
	return fmt.Sprintf("pending_intent_%d", chatID)
}
