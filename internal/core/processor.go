package core

import (
	"context"
	"time"
)

// CycleRunner runs a single processing cycle on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context) (CycleResult, error)
}

// AttemptOutcome summarizes how a single campaign attempt ended.
type AttemptOutcome string

const (
	AttemptPublished     AttemptOutcome = "published"
	AttemptFailed        AttemptOutcome = "failed"
	AttemptSkipped       AttemptOutcome = "skipped"
	AttemptMisconfigured AttemptOutcome = "misconfigured"
)

// AttemptResult reports one campaign attempt inside a cycle.
type AttemptResult struct {
	CampaignID string         `json:"campaign_id"`
	JobID      string         `json:"job_id,omitempty"`
	Outcome    AttemptOutcome `json:"outcome"`
	Error      string         `json:"error,omitempty"`
	NextDueAt  *time.Time     `json:"next_due_at,omitempty"`
}

// CycleSkipReason explains why a cycle did no work.
type CycleSkipReason string

const (
	CycleSkipInProgress CycleSkipReason = "in_progress"
	CycleSkipLeaseHeld  CycleSkipReason = "lease_held"
)

// CycleResult summarizes a processing cycle.
type CycleResult struct {
	StartedAt  time.Time       `json:"started_at"`
	Due        int             `json:"due"`
	Completed  int             `json:"completed"`
	Failed     int             `json:"failed"`
	Duration   time.Duration   `json:"duration"`
	Attempts   []AttemptResult `json:"attempts,omitempty"`
	Skipped    bool            `json:"skipped,omitempty"`
	SkipReason CycleSkipReason `json:"skip_reason,omitempty"`
}

// Count returns how many attempts ended with the given outcome.
func (r CycleResult) Count(outcome AttemptOutcome) int {
	n := 0
	for _, a := range r.Attempts {
		if a.Outcome == outcome {
			n++
		}
	}
	return n
}

// Record appends an attempt and keeps the completed and failed tallies in step.
func (r *CycleResult) Record(a AttemptResult) {
	r.Attempts = append(r.Attempts, a)
	switch a.Outcome {
	case AttemptPublished:
		r.Completed++
	case AttemptFailed, AttemptMisconfigured:
		r.Failed++
	}
}
