package state

import (
	"fmt"
	"strconv"
	"strings"
)

// Normalize coerces an arbitrary world state into a well-formed one. It is
// total and idempotent, and returns a new value without mutating its input:
//   - a zero-valued scene is replaced with {DefaultSceneID, DefaultSceneBeats}
//   - an empty scene id becomes DefaultSceneID
//   - a negative beat budget becomes DefaultSceneBeats; an explicit zero is
//     kept, so the scene rotates on the next advance (the JSON decoder fills
//     a missing budget with the default, see WorldState.UnmarshalJSON)
//   - an empty objective list is replaced with the seed objective
func Normalize(ws WorldState) WorldState {
	out := ws.Clone()
	if out.Scene.ID == "" {
		out.Scene.ID = DefaultSceneID
		if out.Scene.BeatsRemaining == 0 {
			out.Scene.BeatsRemaining = DefaultSceneBeats
		}
	}
	if out.Scene.BeatsRemaining < 0 {
		out.Scene.BeatsRemaining = DefaultSceneBeats
	}
	if len(out.ActiveObjectives) == 0 {
		out.ActiveObjectives = []Objective{seedObjective()}
	}
	return out
}

// AdvanceScene consumes one beat of the current scene's budget. On
// exhaustion it rotates to the next scene id, resets the budget, and returns
// a non-empty hint for the next narration request. turnNumber is only used
// by the fallback id scheme when the current id has no numeric suffix.
func AdvanceScene(ws WorldState, turnNumber int) (WorldState, string) {
	out := Normalize(ws)
	out.Scene.BeatsRemaining--
	if out.Scene.BeatsRemaining > 0 {
		return out, ""
	}

	next := nextSceneID(out.Scene.ID, turnNumber)
	out.Scene = Scene{ID: next, BeatsRemaining: DefaultSceneBeats}
	hint := fmt.Sprintf("The current scene has run its course. Narrate a transition into %s.", next)
	return out, hint
}

// ApplyProgress advances objective bookkeeping for one turn. If the delta
// carries an objective update, the oldest open objective is completed and
// exactly one follow-up is appended.
//
// ApplyProgress is deliberately not idempotent: applying the same signaling
// delta twice completes two objectives and appends two follow-ups. The
// calling pipeline must apply it at most once per turn.
func ApplyProgress(ws WorldState, delta *StateDelta) WorldState {
	out := Normalize(ws)
	if !delta.HasObjectiveUpdate() {
		return out
	}

	for i := range out.ActiveObjectives {
		if out.ActiveObjectives[i].Status != ObjectiveCompleted {
			out.ActiveObjectives[i].Complete()
			break
		}
	}

	// The follow-up id counts from the length before the append.
	out.ActiveObjectives = append(out.ActiveObjectives, followUpObjective(len(out.ActiveObjectives)+1))
	return out
}

// nextSceneID derives the successor id from the current one. Ids shaped
// "<prefix>-<number>" increment the number; anything else falls back to a
// deterministic id keyed to the caller's turn counter.
func nextSceneID(current string, turnNumber int) string {
	if i := strings.LastIndex(current, "-"); i >= 0 {
		if n, err := strconv.Atoi(current[i+1:]); err == nil {
			prefix := current[:i]
			if prefix == "" {
				prefix = "scene"
			}
			return fmt.Sprintf("%s-%d", prefix, n+1)
		}
	}
	return fmt.Sprintf("scene-%d", turnNumber+1)
}
