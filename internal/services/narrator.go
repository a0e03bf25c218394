package services

import (
	"context"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

// Narrator defines the interface to the generation layer. Implementations
// produce free-form narration and, separately, a per-turn state delta; the
// deterministic progression core never depends on either being well-behaved.
type Narrator interface {
	// InitModel prepares the narration model on startup
	InitModel(ctx context.Context, modelName string) error

	// Narrate generates the narrated outcome of a turn
	Narrate(ctx context.Context, messages []chat.ChatMessage) (*chat.TurnResponse, error)

	// ExtractDelta reduces a narrated turn to a structured state delta.
	// Returns the delta and the backend model that produced it.
	ExtractDelta(ctx context.Context, messages []chat.ChatMessage) (*state.StateDelta, string, error)
}
