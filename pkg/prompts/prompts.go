package prompts

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SystemPromptPreamble establishes the narrator's job for every request.
const SystemPromptPreamble = `You are the narrator of a turn-based interactive fiction campaign. ` +
	`Respond in second person, present tense. Keep each response to a few paragraphs and ` +
	`end on a beat the player can act on. Never speak for the player.`

// UserPostPrompt is appended after the player's message on every turn.
const UserPostPrompt = `Stay inside the current scene unless a scene transition was requested above. ` +
	`Weave the player's open objectives into the narration where it is natural to do so.`

// DeltaExtractionPrompt instructs the backend model to reduce a narrated turn
// to a structured state delta. The schema mirrors state.StateDelta.
const DeltaExtractionPrompt = `Summarize the turn below as a JSON state delta with these optional keys:
- "narration": one-sentence recap of what happened
- "scene_mood": the mood the scene ended on
- "set_vars": map of string variables the turn established
- "world_changes": list of lasting changes to the world
- "objective_updates": list of {"id", "note"} entries, one per tracked objective the turn moved forward

Include "objective_updates" ONLY when the player made concrete progress on a tracked objective.
Respond with the JSON object and nothing else.`

// contentRatingPrompts maps content ratings to narration constraints.
var contentRatingPrompts = map[string]string{
	"G":    "Keep all content suitable for young children.",
	"PG":   "Keep content family-friendly. Mild peril is fine.",
	"PG13": "Moderate violence and tension are fine. No explicit content.",
	"R":    "Mature themes and violence are permitted. No gratuitous content.",
}

// ContentRatingPrompt returns the narration constraint for a rating, or an
// empty string for unknown ratings.
func ContentRatingPrompt(rating string) string {
	rating = strings.ToUpper(strings.TrimSpace(rating))
	rating = strings.ReplaceAll(rating, "-", "")
	return contentRatingPrompts[rating]
}

var headingCaser = cases.Title(language.English)

// SceneHeading renders a scene id as a display heading, e.g.
// "undercity-3" -> "Undercity 3".
func SceneHeading(sceneID string) string {
	h := strings.NewReplacer("-", " ", "_", " ").Replace(sceneID)
	return headingCaser.String(strings.TrimSpace(h))
}
