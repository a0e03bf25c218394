package state

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestWorldState_JSONRoundTrip(t *testing.T) {
	raw := `{
		"scene": {"scene_id": "undercity-2", "beats_remaining": 3},
		"active_objectives": [
			{"id": "obj-main-1", "description": "d", "success_conditions": ["c"], "progress_state": "in_progress"}
		],
		"faction_standing": {"syndicate": -2},
		"campaign_notes": "owned by another subsystem"
	}`

	var ws WorldState
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if ws.Scene.ID != "undercity-2" || ws.Scene.BeatsRemaining != 3 {
		t.Errorf("scene not decoded: %+v", ws.Scene)
	}
	if len(ws.ActiveObjectives) != 1 || ws.ActiveObjectives[0].ID != "obj-main-1" {
		t.Errorf("objectives not decoded: %+v", ws.ActiveObjectives)
	}
	if _, ok := ws.Extra["faction_standing"]; !ok {
		t.Error("pass-through field faction_standing dropped on decode")
	}

	out, err := json.Marshal(ws)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	for _, key := range []string{"scene", "active_objectives", "faction_standing", "campaign_notes"} {
		if _, ok := got[key]; !ok {
			t.Errorf("marshal dropped %q", key)
		}
	}

	var notes string
	if err := json.Unmarshal(got["campaign_notes"], &notes); err != nil || notes != "owned by another subsystem" {
		t.Errorf("pass-through field altered: %q (err %v)", notes, err)
	}
}

func TestWorldState_UnmarshalMalformedFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "scene is a string", raw: `{"scene": "not-a-record", "active_objectives": "nope"}`},
		{name: "scene is a number", raw: `{"scene": 7, "active_objectives": 7}`},
		{name: "fields missing", raw: `{}`},
		{name: "objectives empty", raw: `{"active_objectives": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ws WorldState
			if err := json.Unmarshal([]byte(tt.raw), &ws); err != nil {
				t.Fatalf("permissive decode failed: %v", err)
			}

			got := Normalize(ws)
			if got.Scene.ID != DefaultSceneID || got.Scene.BeatsRemaining != DefaultSceneBeats {
				t.Errorf("expected default scene, got %+v", got.Scene)
			}
			if len(got.ActiveObjectives) != 1 || got.ActiveObjectives[0].ID != "obj-main-1" {
				t.Errorf("expected seed objective, got %+v", got.ActiveObjectives)
			}
		})
	}
}

func TestWorldState_SceneBudgetPresence(t *testing.T) {
	// An explicit zero budget survives decode and normalization, so the
	// scene rotates on the next advance.
	var ws WorldState
	raw := `{"scene": {"scene_id": "undercity-2", "beats_remaining": 0}}`
	if err := json.Unmarshal([]byte(raw), &ws); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if ws.Scene.BeatsRemaining != 0 {
		t.Fatalf("explicit zero budget altered on decode: %d", ws.Scene.BeatsRemaining)
	}

	norm := Normalize(ws)
	if norm.Scene.ID != "undercity-2" || norm.Scene.BeatsRemaining != 0 {
		t.Errorf("explicit zero budget altered by normalization: %+v", norm.Scene)
	}

	advanced, hint := AdvanceScene(norm, 3)
	if advanced.Scene.ID != "undercity-3" || advanced.Scene.BeatsRemaining != DefaultSceneBeats {
		t.Errorf("expected rotation on an exhausted budget, got %+v", advanced.Scene)
	}
	if hint == "" {
		t.Error("expected a transition hint on rotation")
	}

	// A missing budget key takes the default.
	var missing WorldState
	if err := json.Unmarshal([]byte(`{"scene": {"scene_id": "undercity-2"}}`), &missing); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if missing.Scene.BeatsRemaining != DefaultSceneBeats {
		t.Errorf("missing budget key not defaulted: %d", missing.Scene.BeatsRemaining)
	}
}

func TestWorldState_CloneSharesNothing(t *testing.T) {
	ws := WorldState{
		Scene: Scene{ID: "scene-2", BeatsRemaining: 2},
		ActiveObjectives: []Objective{
			{
				ID:                "obj-main-1",
				SuccessConditions: []string{"a"},
				Status:            ObjectiveCompleted,
				Reward:            map[string]int{"credits": 25},
			},
		},
		Extra: map[string]json.RawMessage{"k": json.RawMessage(`"v"`)},
	}

	cp := ws.Clone()
	if !reflect.DeepEqual(ws, cp) {
		t.Fatalf("clone differs:\noriginal: %+v\nclone:    %+v", ws, cp)
	}

	cp.ActiveObjectives[0].SuccessConditions[0] = "b"
	cp.ActiveObjectives[0].Reward["credits"] = 0
	cp.Extra["k2"] = json.RawMessage(`1`)

	if ws.ActiveObjectives[0].SuccessConditions[0] != "a" {
		t.Error("clone shares success condition backing array")
	}
	if ws.ActiveObjectives[0].Reward["credits"] != 25 {
		t.Error("clone shares reward map")
	}
	if _, ok := ws.Extra["k2"]; ok {
		t.Error("clone shares extra map")
	}
}

func TestStateDelta_Presence(t *testing.T) {
	var nilDelta *StateDelta
	if nilDelta.HasObjectiveUpdate() {
		t.Error("nil delta reports objective updates")
	}
	if !nilDelta.IsEmpty() {
		t.Error("nil delta is not empty")
	}

	d := &StateDelta{Narration: "something happened"}
	if d.HasObjectiveUpdate() {
		t.Error("narration-only delta reports objective updates")
	}
	if d.IsEmpty() {
		t.Error("narration-only delta reported empty")
	}

	d.ObjectiveUpdates = append(d.ObjectiveUpdates, ObjectiveUpdate{Note: "progress"})
	if !d.HasObjectiveUpdate() {
		t.Error("delta with updates reports none")
	}
}
