package chat

import (
	"fmt"

	"github.com/google/uuid"
)

// TurnRequest is one player action submitted to the storyteller api.
type TurnRequest struct {
	CampaignID uuid.UUID `json:"campaign_id"` // Unique ID for the campaign
	Message    string    `json:"message"`
}

// TurnResponse is the narrated outcome of a turn. The updated world state is
// persisted by the handler and fetched separately.
type TurnResponse struct {
	CampaignID uuid.UUID `json:"campaign_id,omitempty"`
	Narration  string    `json:"narration,omitempty"`
	SceneID    string    `json:"scene_id,omitempty"`
	TurnNumber int       `json:"turn_number,omitempty"`
}

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator voice
	ChatRoleSystem = "system"    // Prompt scaffolding
)

// ChatMessage is a single message in a narration request. The shape follows
// the OpenAI-style chat completion APIs the narrator providers expose.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

func (tr *TurnRequest) Validate() error {
	if tr.CampaignID == uuid.Nil {
		return fmt.Errorf("campaign_id is required")
	}
	if tr.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
