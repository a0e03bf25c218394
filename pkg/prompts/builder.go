package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/setting"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

// Builder constructs the message array for a narration request using a fluent
// interface. It keeps prompt assembly out of the turn processor.
type Builder struct {
	c              *campaign.Campaign
	setting        *setting.Setting
	userMessage    string
	transitionHint string
	historyLimit   int
	messages       []chat.ChatMessage
}

// New creates a prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: 20, // default history window
		messages:     make([]chat.ChatMessage, 0),
	}
}

// WithCampaign sets the campaign whose world state and history are narrated.
func (b *Builder) WithCampaign(c *campaign.Campaign) *Builder {
	b.c = c
	return b
}

// WithSetting sets the static setting template.
func (b *Builder) WithSetting(s *setting.Setting) *Builder {
	b.setting = s
	return b
}

// WithUserMessage sets the player's action for this turn.
func (b *Builder) WithUserMessage(message string) *Builder {
	b.userMessage = message
	return b
}

// WithTransitionHint injects a scene-transition hint produced by the previous
// turn's advancer. An empty hint is ignored.
func (b *Builder) WithTransitionHint(hint string) *Builder {
	b.transitionHint = hint
	return b
}

// WithHistoryLimit sets the chat history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the final message array for the narrator.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.c == nil {
		return nil, fmt.Errorf("campaign is required")
	}
	if b.setting == nil {
		return nil, fmt.Errorf("setting is required")
	}

	b.messages = make([]chat.ChatMessage, 0)

	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}
	b.addHistory()
	b.addTransitionHint()
	b.addUserMessage()
	b.addFinalPrompt()

	return b.messages, nil
}

// addSystemPrompt builds the main system prompt from the setting and world state.
func (b *Builder) addSystemPrompt() error {
	var sb strings.Builder
	sb.WriteString(SystemPromptPreamble)

	sb.WriteString("\n\nThe player is in this campaign setting: " + b.setting.Synopsis)
	if b.setting.Tone != "" {
		sb.WriteString("\nTone: " + b.setting.Tone)
	}
	if rp := ContentRatingPrompt(b.setting.Rating); rp != "" {
		sb.WriteString("\nContent Rating: " + b.setting.Rating + " (" + rp + ")")
	}

	world := state.Normalize(b.c.World)
	worldJSON, err := json.Marshal(world)
	if err != nil {
		return fmt.Errorf("error marshalling world state: %w", err)
	}

	sb.WriteString("\n\nCurrent scene: " + SceneHeading(world.Scene.ID))
	sb.WriteString(fmt.Sprintf(" (%d beats remaining)", world.Scene.BeatsRemaining))
	sb.WriteString("\n\nTracked objectives:\n")
	sb.WriteString(objectiveSummary(world.ActiveObjectives))

	sb.WriteString("\n\nThe following JSON is the authoritative world state:\n")
	sb.WriteString("```json\n" + string(worldJSON) + "\n```")

	if len(b.setting.NarratorNotes) > 0 {
		sb.WriteString("\n\nStanding narration notes:\n")
		for i, note := range b.setting.NarratorNotes {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, note))
		}
	}

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
	return nil
}

// addHistory adds windowed chat history to the message array.
func (b *Builder) addHistory() {
	if len(b.c.ChatHistory) == 0 {
		return
	}
	if len(b.c.ChatHistory) <= b.historyLimit {
		b.messages = append(b.messages, b.c.ChatHistory...)
		return
	}
	b.messages = append(b.messages, b.c.ChatHistory[len(b.c.ChatHistory)-b.historyLimit:]...)
}

// addTransitionHint injects the scene-transition hint, if one was queued.
func (b *Builder) addTransitionHint() {
	if b.transitionHint == "" {
		return
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: b.transitionHint,
	})
}

// addUserMessage adds the player's action for this turn.
func (b *Builder) addUserMessage() {
	if b.userMessage == "" {
		return
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: b.userMessage,
	})
}

// addFinalPrompt appends the standing per-turn reminders.
func (b *Builder) addFinalPrompt() {
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: UserPostPrompt,
	})
}

func objectiveSummary(objectives []state.Objective) string {
	var sb strings.Builder
	for _, obj := range objectives {
		marker := "[ ]"
		if obj.Status == state.ObjectiveCompleted {
			marker = "[x]"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s\n", marker, obj.ID, obj.Description))
	}
	return sb.String()
}

// BuildMessages is a convenience function for the common case.
func BuildMessages(
	c *campaign.Campaign,
	s *setting.Setting,
	message string,
	transitionHint string,
	historyLimit int,
) ([]chat.ChatMessage, error) {
	return New().
		WithCampaign(c).
		WithSetting(s).
		WithUserMessage(message).
		WithTransitionHint(transitionHint).
		WithHistoryLimit(historyLimit).
		Build()
}
