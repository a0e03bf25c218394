package state

import "encoding/json"

const (
	// DefaultSceneID is the scene id injected when a world state has no
	// usable scene.
	DefaultSceneID = "scene-1"

	// DefaultSceneBeats is the fixed per-scene budget: the number of turns
	// a scene lasts before a mandatory transition.
	DefaultSceneBeats = 4

	// DefaultRewardCredits is the reward attached to an objective on
	// completion when the narration layer supplied none.
	DefaultRewardCredits = 25
)

// Scene is a bounded narrative segment. Each turn consumes one beat of its
// budget; when the budget runs out the scene id rotates and the budget resets.
type Scene struct {
	ID             string `json:"scene_id"`
	BeatsRemaining int    `json:"beats_remaining"`
}

// WorldState is the mutable narrative state of a campaign. The calling
// pipeline owns it between turns; the progression functions in this package
// receive it by value and return a new value.
//
// Extra carries fields owned by other subsystems. They are round-tripped
// through JSON untouched and never examined here.
type WorldState struct {
	Scene            Scene
	ActiveObjectives []Objective
	Extra            map[string]json.RawMessage
}

// UnmarshalJSON decodes a world state permissively. A scene or objective list
// of the wrong shape decays to its zero value rather than failing the decode;
// Normalize restores the defaults afterward. Unknown fields land in Extra.
//
// The scene decode is presence-aware: a missing beats_remaining key takes the
// default budget, while an explicit zero is kept as-is so the scene rotates
// on the next advance.
func (ws *WorldState) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*ws = WorldState{}
	for k, v := range fields {
		switch k {
		case "scene":
			var sc struct {
				ID             string `json:"scene_id"`
				BeatsRemaining *int   `json:"beats_remaining"`
			}
			if err := json.Unmarshal(v, &sc); err == nil {
				ws.Scene.ID = sc.ID
				if sc.BeatsRemaining != nil {
					ws.Scene.BeatsRemaining = *sc.BeatsRemaining
				} else {
					ws.Scene.BeatsRemaining = DefaultSceneBeats
				}
			}
		case "active_objectives":
			var objs []Objective
			if err := json.Unmarshal(v, &objs); err == nil {
				ws.ActiveObjectives = objs
			}
		default:
			if ws.Extra == nil {
				ws.Extra = make(map[string]json.RawMessage)
			}
			ws.Extra[k] = v
		}
	}
	return nil
}

// MarshalJSON writes the scene and objective list alongside the pass-through
// fields, at the same level they were read from.
func (ws WorldState) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(ws.Extra)+2)
	for k, v := range ws.Extra {
		out[k] = v
	}
	out["scene"] = ws.Scene
	out["active_objectives"] = ws.ActiveObjectives
	return json.Marshal(out)
}

// Clone returns a copy that shares no mutable memory with the receiver.
func (ws WorldState) Clone() WorldState {
	out := ws
	if ws.ActiveObjectives != nil {
		out.ActiveObjectives = make([]Objective, len(ws.ActiveObjectives))
		for i, obj := range ws.ActiveObjectives {
			out.ActiveObjectives[i] = obj.clone()
		}
	}
	if ws.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(ws.Extra))
		for k, v := range ws.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
