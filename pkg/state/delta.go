package state

// StateDelta is a compact, per-turn summary of what the narration layer
// changed. A delta is much faster for the LLM to generate than a full world
// state. The progression core reads only whether objective updates are
// present; every other field is applied or consumed by the host pipeline.
type StateDelta struct {
	Narration    string            `json:"narration,omitempty"`
	SceneMood    string            `json:"scene_mood,omitempty"`
	SetVars      map[string]string `json:"set_vars,omitempty"`
	WorldChanges []string          `json:"world_changes,omitempty"`

	ObjectiveUpdates []ObjectiveUpdate `json:"objective_updates,omitempty"`
}

// ObjectiveUpdate reports narrative movement on an objective. The progression
// core checks only for presence; the content belongs to the narration layer.
type ObjectiveUpdate struct {
	ID   string `json:"id,omitempty"`
	Note string `json:"note,omitempty"`
}

// HasObjectiveUpdate reports whether the delta carries any objective-related
// entries.
func (d *StateDelta) HasObjectiveUpdate() bool {
	return d != nil && len(d.ObjectiveUpdates) > 0
}

// IsEmpty checks if the StateDelta carries no changes at all.
func (d *StateDelta) IsEmpty() bool {
	return d == nil || (d.Narration == "" &&
		d.SceneMood == "" &&
		len(d.SetVars) == 0 &&
		len(d.WorldChanges) == 0 &&
		len(d.ObjectiveUpdates) == 0)
}
