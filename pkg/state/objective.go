package state

import "fmt"

// ObjectiveStatus is the lifecycle state of an objective. The only legal
// transition is in_progress -> completed; completed is terminal.
type ObjectiveStatus string

const (
	ObjectiveInProgress ObjectiveStatus = "in_progress"
	ObjectiveCompleted  ObjectiveStatus = "completed"
)

// Objective is a tracked player goal. Objectives are created by normalization
// (the seed objective) or by ApplyProgress (follow-ups); they are never
// removed, only completed.
type Objective struct {
	ID                string          `json:"id"`
	Description       string          `json:"description"`
	SuccessConditions []string        `json:"success_conditions"`
	Status            ObjectiveStatus `json:"progress_state"`
	Reward            map[string]int  `json:"reward,omitempty"`
}

// Complete flips the objective to completed and attaches the default reward.
// A completed objective is left untouched, and an existing reward is never
// overwritten.
func (o *Objective) Complete() {
	if o.Status == ObjectiveCompleted {
		return
	}
	o.Status = ObjectiveCompleted
	if o.Reward == nil {
		o.Reward = map[string]int{"credits": DefaultRewardCredits}
	}
}

func (o Objective) clone() Objective {
	out := o
	if o.SuccessConditions != nil {
		out.SuccessConditions = make([]string, len(o.SuccessConditions))
		copy(out.SuccessConditions, o.SuccessConditions)
	}
	if o.Reward != nil {
		out.Reward = make(map[string]int, len(o.Reward))
		for k, v := range o.Reward {
			out.Reward[k] = v
		}
	}
	return out
}

// seedObjective is the objective injected when a world state has none.
func seedObjective() Objective {
	return Objective{
		ID:          "obj-main-1",
		Description: "Secure leverage in the current sector.",
		SuccessConditions: []string{
			"Identify an exploitable asset or contact.",
			"Gain a concrete hold over it before the scene shifts.",
		},
		Status: ObjectiveInProgress,
	}
}

// followUpObjective is appended after a completion. n is computed from the
// objective count before the append.
func followUpObjective(n int) Objective {
	return Objective{
		ID:          fmt.Sprintf("obj-main-%d", n),
		Description: "Press the advantage gained in the previous push.",
		SuccessConditions: []string{
			"Convert the completed objective into a lasting foothold.",
		},
		Status: ObjectiveInProgress,
	}
}
