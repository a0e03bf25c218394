package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/setting"
)

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*campaign.Campaign
	settings  map[string]*setting.Setting

	// Error hooks for failure-path tests
	SaveErr error
	LoadErr error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		campaigns: make(map[uuid.UUID]*campaign.Campaign),
		settings:  make(map[string]*setting.Setting),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error { return nil }
func (m *MockStorage) Close() error                   { return nil }

func (m *MockStorage) SaveCampaign(ctx context.Context, id uuid.UUID, c *campaign.Campaign) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[id] = c
	return nil
}

func (m *MockStorage) LoadCampaign(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.campaigns[id], nil
}

func (m *MockStorage) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.campaigns, id)
	return nil
}

func (m *MockStorage) AddSetting(filename string, s *setting.Setting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[filename] = s
}

func (m *MockStorage) ListSettings(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.settings))
	for filename, s := range m.settings {
		out[s.Name] = filename
	}
	return out, nil
}

func (m *MockStorage) GetSetting(ctx context.Context, filename string) (*setting.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[filename]
	if !ok {
		return nil, fmt.Errorf("setting not found: %s", filename)
	}
	return s, nil
}
