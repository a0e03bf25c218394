package services

import (
	"context"
	"sync"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

// MockNarrator is a deterministic Narrator for tests. It returns canned
// narration and deltas and records every request it receives.
type MockNarrator struct {
	mu sync.Mutex

	Narration  string
	NextDelta  *state.StateDelta
	NarrateErr error
	DeltaErr   error

	NarrateCalls [][]chat.ChatMessage
	DeltaCalls   [][]chat.ChatMessage
}

var _ Narrator = (*MockNarrator)(nil)

func NewMockNarrator() *MockNarrator {
	return &MockNarrator{
		Narration: "The docking bay lights flicker as you move.",
	}
}

func (m *MockNarrator) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (m *MockNarrator) Narrate(ctx context.Context, messages []chat.ChatMessage) (*chat.TurnResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NarrateCalls = append(m.NarrateCalls, messages)
	if m.NarrateErr != nil {
		return nil, m.NarrateErr
	}
	return &chat.TurnResponse{Narration: m.Narration}, nil
}

func (m *MockNarrator) ExtractDelta(ctx context.Context, messages []chat.ChatMessage) (*state.StateDelta, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeltaCalls = append(m.DeltaCalls, messages)
	if m.DeltaErr != nil {
		return nil, "mock-backend", m.DeltaErr
	}
	if m.NextDelta == nil {
		return &state.StateDelta{}, "mock-backend", nil
	}
	return m.NextDelta, "mock-backend", nil
}
