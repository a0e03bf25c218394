package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/services"
	"github.com/DinomyteHero/Storyteller-V2-sub003/internal/storage"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/prompts"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

const (
	PromptHistoryLimit = 6

	narrateTimeout = 30 * time.Second
	deltaAttempts  = 2
)

// HintQueue carries scene-transition hints from one turn into the next
// turn's prompt context.
type HintQueue interface {
	Enqueue(ctx context.Context, campaignID uuid.UUID, hint string) error
	GetFormattedHints(ctx context.Context, campaignID uuid.UUID) (string, error)
}

// TurnProcessor runs the per-turn pipeline: narration, then the
// deterministic progression pass over the world state. It is used by the
// HTTP handler (synchronously) and by the queue worker (asynchronously).
//
// The caller must serialize turns per campaign; the progression pass applies
// the delta exactly once per processed turn.
type TurnProcessor struct {
	storage  storage.Storage
	narrator services.Narrator
	hints    HintQueue
	logger   *slog.Logger
}

// NewTurnProcessor creates a new turn processor. hints may be nil, in which
// case scene-transition hints are dropped after the response is built.
func NewTurnProcessor(
	storage storage.Storage,
	narrator services.Narrator,
	hints HintQueue,
	logger *slog.Logger,
) *TurnProcessor {
	return &TurnProcessor{
		storage:  storage,
		narrator: narrator,
		hints:    hints,
		logger:   logger,
	}
}

// ProcessTurn runs one full turn for a campaign and returns the narrated
// outcome. The updated campaign is persisted before returning.
func (p *TurnProcessor) ProcessTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResponse, error) {
	c, err := p.storage.LoadCampaign(ctx, req.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("campaign not found: %s", req.CampaignID.String())
	}

	s, err := p.storage.GetSetting(ctx, c.Setting)
	if err != nil {
		return nil, fmt.Errorf("failed to load setting: %w", err)
	}

	// Hints queued by the previous turn's scene transition
	transitionHint := ""
	if p.hints != nil {
		transitionHint, err = p.hints.GetFormattedHints(ctx, c.ID)
		if err != nil {
			p.logger.Error("Error getting scene hints from queue", "error", err, "campaign_id", c.ID.String())
			// Continue without hints on error
		}
	}

	messages, err := prompts.New().
		WithCampaign(c).
		WithSetting(s).
		WithUserMessage(req.Message).
		WithTransitionHint(transitionHint).
		WithHistoryLimit(PromptHistoryLimit).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build narration messages: %w", err)
	}

	narrateCtx, cancel := context.WithTimeout(ctx, narrateTimeout)
	defer cancel()

	p.logger.Debug("Sending narration request", "campaign_id", c.ID.String(), "turn", c.TurnNumber+1)
	response, err := p.narrator.Narrate(narrateCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("narration failed: %w", err)
	}
	response.Narration = strings.TrimRight(response.Narration, "\n")

	delta := p.extractDelta(ctx, c.World, req.Message, response.Narration)

	// Progression pass. The turn counter increments first; the scene
	// advancer consumes one beat and may rotate the scene, and the
	// objective progressor applies the delta exactly once.
	c.TurnNumber++
	world, hint := state.AdvanceScene(c.World, c.TurnNumber)
	world = state.ApplyProgress(world, delta)
	c.World = world

	if hint != "" {
		p.logger.Info("Scene transition",
			"campaign_id", c.ID.String(),
			"scene_id", world.Scene.ID,
			"turn", c.TurnNumber)
		if p.hints != nil {
			if err := p.hints.Enqueue(ctx, c.ID, hint); err != nil {
				p.logger.Error("Failed to enqueue scene hint",
					"error", err,
					"campaign_id", c.ID.String())
				// The hint is lost, but progression already happened
			}
		}
	}

	c.ChatHistory = append(c.ChatHistory,
		chat.ChatMessage{Role: chat.ChatRoleUser, Content: req.Message},
		chat.ChatMessage{Role: chat.ChatRoleAgent, Content: response.Narration},
	)

	if err := p.storage.SaveCampaign(ctx, c.ID, c); err != nil {
		return nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	response.CampaignID = c.ID
	response.SceneID = world.Scene.ID
	response.TurnNumber = c.TurnNumber
	return response, nil
}

// extractDelta asks the backend model for a structured state delta, with one
// retry. A nil return means the turn progresses without objective movement.
func (p *TurnProcessor) extractDelta(ctx context.Context, world state.WorldState, userMessage, narration string) *state.StateDelta {
	normalized := state.Normalize(world)
	worldJSON, err := normalized.MarshalJSON()
	if err != nil {
		p.logger.Error("Failed to marshal world state for delta extraction", "error", err)
		return nil
	}

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: prompts.DeltaExtractionPrompt},
		{Role: chat.ChatRoleSystem, Content: "BEFORE world state: " + string(worldJSON)},
		{Role: chat.ChatRoleUser, Content: userMessage},
		{Role: chat.ChatRoleAgent, Content: narration},
	}

	deltaCtx, cancel := context.WithTimeout(ctx, narrateTimeout)
	defer cancel()

	for attempt := 1; attempt <= deltaAttempts; attempt++ {
		delta, backendModel, err := p.narrator.ExtractDelta(deltaCtx, messages)
		if err == nil {
			p.logger.Debug("Received state delta", "backend_model", backendModel, "delta", delta)
			return delta
		}

		if attempt < deltaAttempts {
			p.logger.Warn("State delta extraction failed, will retry", "error", err, "attempt", attempt)
		} else {
			p.logger.Error("State delta extraction failed", "error", err, "attempts", deltaAttempts)
		}
	}
	return nil
}
