package prompts

import (
	"strings"
	"testing"

	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/campaign"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/chat"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/setting"
	"github.com/DinomyteHero/Storyteller-V2-sub003/pkg/state"
)

func testSetting() *setting.Setting {
	return &setting.Setting{
		Name:     "Sector Noir",
		Synopsis: "A smuggler's gambit in a lawless orbital sector.",
		Tone:     "noir",
		Rating:   "PG13",
		NarratorNotes: []string{
			"Keep the syndicate menacing but unseen.",
		},
	}
}

func TestBuilder_Build(t *testing.T) {
	c := campaign.New("sector_noir.json")
	c.ChatHistory = []chat.ChatMessage{
		{Role: chat.ChatRoleUser, Content: "I case the docking bay."},
		{Role: chat.ChatRoleAgent, Content: "The bay is quiet, too quiet."},
	}

	messages, err := New().
		WithCampaign(c).
		WithSetting(testSetting()).
		WithUserMessage("I slip past the guard.").
		WithTransitionHint("The current scene has run its course. Narrate a transition into scene-2.").
		WithHistoryLimit(10).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// system prompt, 2 history, hint, user message, final reminder
	if len(messages) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(messages))
	}

	system := messages[0]
	if system.Role != chat.ChatRoleSystem {
		t.Errorf("expected system role first, got %q", system.Role)
	}
	for _, want := range []string{
		"lawless orbital sector",
		"Content Rating: PG13",
		"Current scene: Scene 1",
		"obj-main-1",
		`"scene_id":"scene-1"`,
		"Keep the syndicate menacing but unseen.",
	} {
		if !strings.Contains(system.Content, want) {
			t.Errorf("system prompt missing %q:\n%s", want, system.Content)
		}
	}

	if messages[3].Role != chat.ChatRoleSystem || !strings.Contains(messages[3].Content, "scene-2") {
		t.Errorf("transition hint not injected: %+v", messages[3])
	}
	if messages[4].Role != chat.ChatRoleUser || messages[4].Content != "I slip past the guard." {
		t.Errorf("user message misplaced: %+v", messages[4])
	}
	if messages[5].Content != UserPostPrompt {
		t.Errorf("expected final reminder last, got %+v", messages[5])
	}
}

func TestBuilder_RequiresCampaignAndSetting(t *testing.T) {
	if _, err := New().WithSetting(testSetting()).Build(); err == nil {
		t.Error("expected error without campaign")
	}
	if _, err := New().WithCampaign(campaign.New("x.json")).Build(); err == nil {
		t.Error("expected error without setting")
	}
}

func TestBuilder_HistoryWindow(t *testing.T) {
	c := campaign.New("sector_noir.json")
	for i := 0; i < 30; i++ {
		c.ChatHistory = append(c.ChatHistory, chat.ChatMessage{Role: chat.ChatRoleUser, Content: "turn"})
	}

	messages, err := New().
		WithCampaign(c).
		WithSetting(testSetting()).
		WithUserMessage("again").
		WithHistoryLimit(5).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// system + 5 windowed history + user + final
	if len(messages) != 8 {
		t.Errorf("expected 8 messages, got %d", len(messages))
	}
}

func TestSceneHeading(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"scene-1", "Scene 1"},
		{"undercity-12", "Undercity 12"},
		{"the_long_walk", "The Long Walk"},
		{"finale", "Finale"},
	}
	for _, tt := range tests {
		if got := SceneHeading(tt.in); got != tt.want {
			t.Errorf("SceneHeading(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentRatingPrompt(t *testing.T) {
	if ContentRatingPrompt("pg-13") == "" {
		t.Error("expected a prompt for pg-13")
	}
	if ContentRatingPrompt("NC17") != "" {
		t.Error("expected no prompt for unknown rating")
	}
}

func TestStateDeltaSchemaMentionsObjectiveUpdates(t *testing.T) {
	// The reducer prompt and the delta type must stay in sync on field names.
	for _, field := range []string{"objective_updates", "set_vars", "world_changes", "scene_mood"} {
		if !strings.Contains(DeltaExtractionPrompt, field) {
			t.Errorf("delta extraction prompt missing field %q", field)
		}
	}
	_ = state.StateDelta{}
}
