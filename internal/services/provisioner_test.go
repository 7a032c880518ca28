package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"outline-tg-bot/internal/config"
	"outline-tg-bot/internal/models"
)

// fakeGateway is an in-memory Outline API double
type fakeGateway struct {
	mu      sync.Mutex
	keys    []models.AccessKey
	metrics map[string]int64
	nextID  int

	createCalls int
	listCalls   int
	deleteCalls int

	createErr error
	renameErr error
	listErr   error
}

func (g *fakeGateway) CreateKey(_ context.Context) (*models.AccessKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}

	g.nextID++
	key := models.AccessKey{
		ID:        fmt.Sprintf("%d", g.nextID),
		Port:      12345,
		Method:    "chacha20-ietf-poly1305",
		AccessURL: fmt.Sprintf("ss://secret-%d@vpn.example.com:12345", g.nextID),
	}
	g.keys = append(g.keys, key)
	return &key, nil
}

func (g *fakeGateway) RenameKey(_ context.Context, id, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.renameErr != nil {
		return g.renameErr
	}

	for i := range g.keys {
		if g.keys[i].ID == id {
			g.keys[i].Name = name
			return nil
		}
	}
	return errors.New("key not found")
}

func (g *fakeGateway) ListKeys(_ context.Context) ([]models.AccessKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}

	out := make([]models.AccessKey, len(g.keys))
	copy(out, g.keys)
	return out, nil
}

func (g *fakeGateway) GetKey(_ context.Context, id string) (*models.AccessKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.keys {
		if g.keys[i].ID == id {
			key := g.keys[i]
			return &key, nil
		}
	}
	return nil, errors.New("key not found")
}

func (g *fakeGateway) DeleteKey(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.deleteCalls++
	for i := range g.keys {
		if g.keys[i].ID == id {
			g.keys = append(g.keys[:i], g.keys[i+1:]...)
			return nil
		}
	}
	return errors.New("key not found")
}

func (g *fakeGateway) TransferMetrics(_ context.Context) (map[string]int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]int64, len(g.metrics))
	for k, v := range g.metrics {
		out[k] = v
	}
	return out, nil
}

// fakeMembership answers every membership check the same way
type fakeMembership struct {
	member bool
}

func (m *fakeMembership) IsGroupMember(_ context.Context, _ int64) bool {
	return m.member
}

func newTestProvisioner(gateway *fakeGateway, member bool) *Provisioner {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cfg := config.OutlineConfig{TrafficLimitGB: 200}
	return NewProvisioner(gateway, &fakeMembership{member: member}, cfg, logger)
}

func TestIssueKeyCreatesAndRenames(t *testing.T) {
	gateway := &fakeGateway{}
	p := newTestProvisioner(gateway, true)
	identity := Identity{UserID: 42, Username: "alice"}

	key, err := p.IssueKey(context.Background(), identity)
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}

	if key.Name != "alice_42" {
		t.Errorf("key name = %q, want alice_42", key.Name)
	}
	if key.AccessURL == "" {
		t.Error("expected a non-empty access URL")
	}
	if gateway.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", gateway.createCalls)
	}
	if gateway.keys[0].Name != "alice_42" {
		t.Errorf("remote key name = %q, want alice_42", gateway.keys[0].Name)
	}
}

func TestIssueKeyIsIdempotent(t *testing.T) {
	gateway := &fakeGateway{}
	p := newTestProvisioner(gateway, true)
	identity := Identity{UserID: 42, Username: "alice"}

	first, err := p.IssueKey(context.Background(), identity)
	if err != nil {
		t.Fatalf("first IssueKey: %v", err)
	}

	second, err := p.IssueKey(context.Background(), identity)
	if err != nil {
		t.Fatalf("second IssueKey: %v", err)
	}

	if first.AccessURL != second.AccessURL {
		t.Errorf("access URLs differ: %q vs %q", first.AccessURL, second.AccessURL)
	}
	if gateway.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", gateway.createCalls)
	}
}

func TestIssueKeyRejectsNonMemberBeforeAnyRemoteCall(t *testing.T) {
	gateway := &fakeGateway{}
	p := newTestProvisioner(gateway, false)

	_, err := p.IssueKey(context.Background(), Identity{UserID: 42, Username: "alice"})
	if !errors.Is(err, ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}

	if gateway.createCalls != 0 || gateway.listCalls != 0 {
		t.Errorf("remote calls happened despite rejected membership: create=%d list=%d",
			gateway.createCalls, gateway.listCalls)
	}
}

func TestIssueKeyQuotaGate(t *testing.T) {
	gateway := &fakeGateway{
		metrics: map[string]int64{"1": 200 * 1024 * 1024 * 1024},
	}
	p := newTestProvisioner(gateway, true)

	_, err := p.IssueKey(context.Background(), Identity{UserID: 42, Username: "alice"})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}

	if gateway.createCalls != 0 {
		t.Errorf("create calls = %d, want 0 when quota exhausted", gateway.createCalls)
	}
}

func TestIssueKeyServesExistingHolderPastQuota(t *testing.T) {
	gateway := &fakeGateway{
		keys: []models.AccessKey{
			{ID: "7", Name: "alice_42", AccessURL: "ss://existing@vpn.example.com:12345"},
		},
		metrics: map[string]int64{"7": 500 * 1024 * 1024 * 1024},
	}
	p := newTestProvisioner(gateway, true)

	key, err := p.IssueKey(context.Background(), Identity{UserID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}

	if key.AccessURL != "ss://existing@vpn.example.com:12345" {
		t.Errorf("access URL = %q, want the existing one", key.AccessURL)
	}
	if gateway.createCalls != 0 {
		t.Errorf("create calls = %d, want 0", gateway.createCalls)
	}
}

func TestIssueKeyDeletesOrphanOnRenameFailure(t *testing.T) {
	gateway := &fakeGateway{renameErr: errors.New("rename failed")}
	p := newTestProvisioner(gateway, true)

	_, err := p.IssueKey(context.Background(), Identity{UserID: 42, Username: "alice"})
	if err == nil {
		t.Fatal("expected an error when rename fails")
	}

	if gateway.deleteCalls != 1 {
		t.Errorf("delete calls = %d, want 1 (orphan cleanup)", gateway.deleteCalls)
	}
	if len(gateway.keys) != 0 {
		t.Errorf("remote keys left = %d, want 0", len(gateway.keys))
	}
}

func TestIssueKeyConcurrentSameIdentityCreatesOneKey(t *testing.T) {
	gateway := &fakeGateway{}
	p := newTestProvisioner(gateway, true)
	identity := Identity{UserID: 42, Username: "alice"}

	var wg sync.WaitGroup
	urls := make([]string, 8)
	for i := range urls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, err := p.IssueKey(context.Background(), identity)
			if err != nil {
				t.Errorf("IssueKey: %v", err)
				return
			}
			urls[i] = key.AccessURL
		}(i)
	}
	wg.Wait()

	if gateway.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", gateway.createCalls)
	}
	for _, url := range urls {
		if url != urls[0] {
			t.Fatalf("access URLs differ under concurrency: %q vs %q", url, urls[0])
		}
	}
}

func TestUsageWithoutKey(t *testing.T) {
	gateway := &fakeGateway{}
	p := newTestProvisioner(gateway, true)

	_, err := p.Usage(context.Background(), Identity{UserID: 42, Username: "alice"})
	if !errors.Is(err, ErrNoKey) {
		t.Fatalf("err = %v, want ErrNoKey", err)
	}
}

func TestUsageMissingMetricsEntryIsZero(t *testing.T) {
	gateway := &fakeGateway{
		keys:    []models.AccessKey{{ID: "7", Name: "alice_42"}},
		metrics: map[string]int64{},
	}
	p := newTestProvisioner(gateway, true)

	bytes, err := p.Usage(context.Background(), Identity{UserID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if bytes != 0 {
		t.Errorf("usage = %d, want 0", bytes)
	}
}

func TestUsageReportsRecordedBytes(t *testing.T) {
	gateway := &fakeGateway{
		keys:    []models.AccessKey{{ID: "7", Name: "alice_42"}},
		metrics: map[string]int64{"7": 2147483648},
	}
	p := newTestProvisioner(gateway, true)

	bytes, err := p.Usage(context.Background(), Identity{UserID: 42, Username: "alice"})
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if bytes != 2147483648 {
		t.Errorf("usage = %d, want 2147483648", bytes)
	}
}

func TestAccessURLWithoutKey(t *testing.T) {
	gateway := &fakeGateway{}
	p := newTestProvisioner(gateway, true)

	_, err := p.AccessURL(context.Background(), Identity{UserID: 42, Username: "alice"})
	if !errors.Is(err, ErrNoKey) {
		t.Fatalf("err = %v, want ErrNoKey", err)
	}
}

func TestRemoveMissingKeyReturnsError(t *testing.T) {
	gateway := &fakeGateway{}
	p := newTestProvisioner(gateway, true)

	if err := p.RemoveKey(context.Background(), "nope"); err == nil {
		t.Fatal("expected an error removing a missing key")
	}
}
