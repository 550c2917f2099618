package order

import (
	"strings"
	"time"
)

// Action is a requested lifecycle transition.
type Action string

const (
	ActionVerify Action = "verify"
	ActionReject Action = "reject"
)

// ParseAction validates the raw action parameter.
func ParseAction(raw string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionVerify:
		return ActionVerify, true
	case ActionReject:
		return ActionReject, true
	}
	return "", false
}

// OutcomeKind classifies the result of applying an action.
type OutcomeKind int

const (
	// OutcomeApplied carries a patch for the caller to persist.
	OutcomeApplied OutcomeKind = iota
	// OutcomeAlreadyVerified: the order already reached verified/completed.
	OutcomeAlreadyVerified
	// OutcomeAlreadyRejected: the order was already rejected or cancelled.
	OutcomeAlreadyRejected
)

// Outcome is the engine's decision. Patch is non-nil only for OutcomeApplied.
type Outcome struct {
	Kind  OutcomeKind
	Patch *Patch
}

// Apply runs the lifecycle state machine over an order snapshot. The
// terminal-state check strictly precedes everything else: a terminal order is
// never re-mutated no matter which action arrives or how often, which is what
// makes the stateless email link safe to click twice.
func Apply(o Order, action Action, now time.Time) Outcome {
	switch o.Status {
	case StatusVerified, StatusCompleted:
		return Outcome{Kind: OutcomeAlreadyVerified}
	case StatusRejected, StatusCancelled:
		return Outcome{Kind: OutcomeAlreadyRejected}
	}

	ts := now.UTC()
	if action == ActionReject {
		return Outcome{Kind: OutcomeApplied, Patch: &Patch{
			Status:        StatusRejected,
			AccessGranted: false,
			RejectedAt:    &ts,
		}}
	}
	return Outcome{Kind: OutcomeApplied, Patch: &Patch{
		Status:          StatusVerified,
		AccessGranted:   true,
		VerifiedAt:      &ts,
		AccessGrantedAt: &ts,
	}}
}
