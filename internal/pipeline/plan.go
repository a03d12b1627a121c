package pipeline

import (
	"fmt"

	"podforge/internal/episode"
)

// Plan decisions.
const (
	DecisionRun     = "run"
	DecisionSkip    = "skip"
	DecisionPending = "pending"
)

// StagePlan is one stage decision in a pipeline plan, produced without
// executing anything.
type StagePlan struct {
	Stage    string `json:"stage"`
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// ResolvePlan determines what each stage would do for an episode in the
// given status. Stages already passed are skipped, the stage matching the
// current status runs, and later stages are pending on its success.
func ResolvePlan(status episode.Status, force bool) []StagePlan {
	currentOrder := status.Order()
	plan := make([]StagePlan, 0, len(stageTable))
	willAdvance := false

	for _, spec := range stageTable {
		requiredOrder := spec.Requires.Order()

		switch {
		case currentOrder > requiredOrder && !force:
			plan = append(plan, StagePlan{spec.Name, DecisionSkip, "already completed"})
		case currentOrder == requiredOrder || force:
			reason := fmt.Sprintf("status=%s", status)
			if force && currentOrder > requiredOrder {
				reason = "forced"
			}
			plan = append(plan, StagePlan{spec.Name, DecisionRun, reason})
			willAdvance = true
		case willAdvance:
			plan = append(plan, StagePlan{spec.Name, DecisionPending, "after prior stages"})
		default:
			plan = append(plan, StagePlan{spec.Name, DecisionSkip, "not ready"})
		}
	}
	return plan
}
