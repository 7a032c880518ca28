package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"outline-tg-bot/internal/config"
	"outline-tg-bot/internal/constants"
	"outline-tg-bot/internal/helpers"
	"outline-tg-bot/internal/models"
)

// Sentinel errors surfaced to the command handlers
var (
	// ErrNotMember indicates the identity is not part of the allowed group
	ErrNotMember = errors.New("user is not a member of the allowed group")
	// ErrQuotaExceeded indicates the total traffic ceiling has been reached
	ErrQuotaExceeded = errors.New("total traffic limit reached")
	// ErrNoKey indicates the identity has no access key yet
	ErrNoKey = errors.New("no access key for this user")
)

// Identity represents the Telegram identity an access key belongs to
type Identity struct {
	UserID   int64
	Username string
}

// CredentialKey derives the remote key name for the identity
func (i Identity) CredentialKey() string {
	return helpers.CredentialKey(i.Username, i.UserID)
}

// Gateway defines the Outline API operations the provisioner needs
type Gateway interface {
	CreateKey(ctx context.Context) (*models.AccessKey, error)
	RenameKey(ctx context.Context, id, name string) error
	ListKeys(ctx context.Context) ([]models.AccessKey, error)
	GetKey(ctx context.Context, id string) (*models.AccessKey, error)
	DeleteKey(ctx context.Context, id string) error
	TransferMetrics(ctx context.Context) (map[string]int64, error)
}

// MembershipChecker reports whether a user belongs to the allowed group
type MembershipChecker interface {
	IsGroupMember(ctx context.Context, userID int64) bool
}

// Provisioner manages access key issuance and lookup for Telegram identities
type Provisioner struct {
	gateway    Gateway
	membership MembershipChecker
	quotaBytes int64
	issueLocks keyedMutex
	logger     *logrus.Logger
}

// NewProvisioner creates a new provisioner
func NewProvisioner(gateway Gateway, membership MembershipChecker, cfg config.OutlineConfig, logger *logrus.Logger) *Provisioner {
	return &Provisioner{
		gateway:    gateway,
		membership: membership,
		quotaBytes: cfg.TrafficLimitGB * constants.BytesInGiB,
		logger:     logger,
	}
}

// IssueKey returns the identity's access key, creating one if needed.
// The find-create-rename sequence is serialized per credential key so two
// near-simultaneous requests from the same identity cannot both pass the
// find step and create duplicate remote keys.
func (p *Provisioner) IssueKey(ctx context.Context, identity Identity) (*models.AccessKey, error) {
	if !p.membership.IsGroupMember(ctx, identity.UserID) {
		return nil, ErrNotMember
	}

	name := identity.CredentialKey()
	unlock := p.issueLocks.lock(name)
	defer unlock()

	existing, err := p.findKey(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// Quota gates only new issuance; existing holders are served above
	// regardless of the ceiling.
	total, err := p.totalUsage(ctx)
	if err != nil {
		return nil, err
	}
	if total >= p.quotaBytes {
		p.logger.Warnf("Refusing new key for %s: %d of %d bytes used", name, total, p.quotaBytes)
		return nil, ErrQuotaExceeded
	}

	key, err := p.gateway.CreateKey(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.gateway.RenameKey(ctx, key.ID, name); err != nil {
		// An unnamed key is invisible to name-based lookups. Delete it
		// so a failed rename does not leave an orphan behind.
		if delErr := p.gateway.DeleteKey(ctx, key.ID); delErr != nil {
			p.logger.Errorf("Failed to delete orphaned key %s: %v", key.ID, delErr)
		}
		return nil, err
	}

	key.Name = name
	p.logger.Infof("Issued access key %s for %s", key.ID, name)
	return key, nil
}

// Usage returns the identity's transferred bytes.
// A key with no metrics entry has used zero bytes; a missing key is ErrNoKey.
func (p *Provisioner) Usage(ctx context.Context, identity Identity) (int64, error) {
	key, err := p.findKey(ctx, identity.CredentialKey())
	if err != nil {
		return 0, err
	}
	if key == nil {
		return 0, ErrNoKey
	}

	metrics, err := p.gateway.TransferMetrics(ctx)
	if err != nil {
		return 0, err
	}

	return metrics[key.ID], nil
}

// UsageByID returns transferred bytes for a key id, zero if unrecorded
func (p *Provisioner) UsageByID(ctx context.Context, id string) (int64, error) {
	metrics, err := p.gateway.TransferMetrics(ctx)
	if err != nil {
		return 0, err
	}

	return metrics[id], nil
}

// AccessURL returns the identity's connection URI
func (p *Provisioner) AccessURL(ctx context.Context, identity Identity) (string, error) {
	key, err := p.findKey(ctx, identity.CredentialKey())
	if err != nil {
		return "", err
	}
	if key == nil {
		return "", ErrNoKey
	}

	return key.AccessURL, nil
}

// ListKeys lists all remote access keys
func (p *Provisioner) ListKeys(ctx context.Context) ([]models.AccessKey, error) {
	return p.gateway.ListKeys(ctx)
}

// RemoveKey deletes an access key by id
func (p *Provisioner) RemoveKey(ctx context.Context, id string) error {
	return p.gateway.DeleteKey(ctx, id)
}

// DescribeKey fetches the full remote record of an access key
func (p *Provisioner) DescribeKey(ctx context.Context, id string) (*models.AccessKey, error) {
	return p.gateway.GetKey(ctx, id)
}

// findKey searches the remote keys for an exact name match
func (p *Provisioner) findKey(ctx context.Context, name string) (*models.AccessKey, error) {
	keys, err := p.gateway.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	for i := range keys {
		if keys[i].Name == name {
			return &keys[i], nil
		}
	}

	return nil, nil
}

// totalUsage recomputes the quota source from fresh remote metrics
func (p *Provisioner) totalUsage(ctx context.Context) (int64, error) {
	metrics, err := p.gateway.TransferMetrics(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, bytes := range metrics {
		total += bytes
	}

	return total, nil
}

// keyedMutex serializes work per string key
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for the given key and returns its unlock func
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
