package domain

import "time"

// DeliveryStatus is the terminal classification recorded for one recipient
// in one dispatch run.
type DeliveryStatus string

const (
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
	StatusInvalid DeliveryStatus = "invalid"
)

// DeliveryOutcome records what happened for a single recipient. Created
// exactly once per recipient per run, appended to the run's outcome log,
// never mutated afterward. ErrorDetail carries the transport's failure
// reason verbatim.
type DeliveryOutcome struct {
	Recipient   Recipient      `json:"recipient"`
	DisplayName string         `json:"display_name"`
	Status      DeliveryStatus `json:"status"`
	ErrorDetail string         `json:"error_detail,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// RunState tracks the coarse lifecycle of a dispatch run.
type RunState string

const (
	RunNotStarted RunState = "not_started"
	RunRunning    RunState = "running"
	RunCompleted  RunState = "completed"
	// RunCancelled marks a run interrupted before processing every
	// recipient; its outcome log covers only the recipients reached.
	RunCancelled RunState = "cancelled"
)

// DispatchRun is the aggregate of one dispatcher invocation: the ordered
// outcome log plus derived counters. It is owned by the caller that invoked
// the dispatch; stores may persist it afterward but the dispatcher itself
// never does.
type DispatchRun struct {
	ID          string            `json:"id"`
	CampaignID  string            `json:"campaign_id,omitempty"`
	State       RunState          `json:"state"`
	Outcomes    []DeliveryOutcome `json:"outcomes"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Tally holds per-status counts folded from a run's outcome log.
type Tally struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Invalid int `json:"invalid"`
	Total   int `json:"total"`
}

// Tally folds over the outcome log. Counters are always derived, never
// stored, so they cannot drift from the log.
func (r *DispatchRun) Tally() Tally {
	var t Tally
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSent:
			t.Sent++
		case StatusFailed:
			t.Failed++
		case StatusInvalid:
			t.Invalid++
		}
	}
	t.Total = len(r.Outcomes)
	return t
}

// SuccessRate returns sent/total as a percentage, 0 for an empty run.
func (r *DispatchRun) SuccessRate() float64 {
	t := r.Tally()
	if t.Total == 0 {
		return 0
	}
	return float64(t.Sent) / float64(t.Total) * 100
}
