package setting

// Setting is the static template a campaign is started from. Settings are
// authored as JSON files in the data directory and never change at runtime;
// all per-campaign state lives in the world state.
type Setting struct {
	Name          string `json:"name"`                // Display name of the setting
	FileName      string `json:"file_name,omitempty"` // File the setting was loaded from
	Synopsis      string `json:"synopsis"`            // Short pitch shown at campaign creation
	Tone          string `json:"tone,omitempty"`      // e.g. "noir", "pulp", "grim"
	Rating        string `json:"rating,omitempty"`    // Content rating, e.g. "PG13"
	OpeningPrompt string `json:"opening_prompt"`      // First narration shown to the player
	OpeningScene  string `json:"opening_scene,omitempty"`

	// NarratorNotes are standing instructions injected into every narration
	// request for campaigns on this setting.
	NarratorNotes []string `json:"narrator_notes,omitempty"`
}
