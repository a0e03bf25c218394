package campaign

import (
	"time"

	"github.com/google/uuid"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

// Campaign is one persisted play-through of a setting. The progression core
// owns only the World field; everything else is host bookkeeping. TurnNumber
// is the monotonically increasing counter handed to the scene advancer.
type Campaign struct {
	ID          uuid.UUID          `json:"id"`
	Setting     string             `json:"setting"` // setting file name
	TurnNumber  int                `json:"turn_number"`
	World       state.WorldState   `json:"world"`
	ChatHistory []chat.ChatMessage `json:"chat_history,omitempty"`
	CreatedAt   time.Time          `json:"created_at,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at,omitempty"`
}

// New creates a campaign on the given setting with a normalized world state.
func New(settingFile string) *Campaign {
	return &Campaign{
		ID:          uuid.New(),
		Setting:     settingFile,
		World:       state.Normalize(state.WorldState{}),
		ChatHistory: make([]chat.ChatMessage, 0),
		CreatedAt:   time.Now(),
	}
}
