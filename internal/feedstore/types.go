// Package feedstore implements the period-scoped record store shared by all
// ingestion feeds: batch refresh of pending records for a period, natural-key
// deduplication, status promotion, and one-way outcome resolution.
package feedstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by store operations. The HTTP layer maps these to
// status codes (404 / 400 / 409).
var (
	// ErrNotFound - the referenced record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrInvalidArgument - malformed input (empty period key, unknown status, ...)
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyResolved - the record already carries a resolution; resolutions
	// are one-way and are never overwritten
	ErrAlreadyResolved = errors.New("record already resolved")
	// ErrInvalidTransition - the requested status change is not allowed by the
	// feed's transition table
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrInvalidArgument)
)

// Status is a record's lifecycle status
type Status string

// Lifecycle statuses shared across feeds. Individual feeds use a subset and
// define which of these count as "pending" (eligible for stale-swap on refresh).
const (
	StatusProposed     Status = "proposed"
	StatusApproved     Status = "approved"
	StatusImplementing Status = "implementing"
	StatusDone         Status = "done"
	StatusSkipped      Status = "skipped"
	StatusResolved     Status = "resolved"
	StatusArchived     Status = "archived"
)

// Record is a stored period-scoped record with its decoded payload
type Record[P any] struct {
	ID          string     `json:"id"`
	PeriodKey   string     `json:"period_key"`
	NaturalKey  string     `json:"natural_key,omitempty"`
	Payload     P          `json:"payload"`
	Status      Status     `json:"status"`
	Rank        float64    `json:"rank"`
	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	Outcome     string     `json:"outcome,omitempty"`
	Correct     *bool      `json:"correct,omitempty"`
	ProfitLoss  *float64   `json:"profit_loss,omitempty"`
}

// Resolved reports whether the record carries a resolution
func (r *Record[P]) Resolved() bool {
	return r.ResolvedAt != nil
}

// CurrentBatch is the result of GetCurrent: the latest period key and all of
// its records in feed order. An empty store yields the zero value.
type CurrentBatch[P any] struct {
	PeriodKey string      `json:"period_key"`
	Records   []Record[P] `json:"records"`
}

// MarshalJSON serializes an empty batch as a null period key and an empty
// records array rather than "" and null.
func (b CurrentBatch[P]) MarshalJSON() ([]byte, error) {
	type wire struct {
		PeriodKey *string     `json:"period_key"`
		Records   []Record[P] `json:"records"`
	}

	out := wire{Records: b.Records}
	if b.PeriodKey != "" {
		out.PeriodKey = &b.PeriodKey
	}
	if out.Records == nil {
		out.Records = []Record[P]{}
	}
	return json.Marshal(out)
}

// Derived is the outcome-derived portion of a resolution, computed by the
// feed's DeriveFunc and never supplied by the caller.
type Derived struct {
	Correct    *bool    // correctness of a directional prediction
	ProfitLoss *float64 // signed P&L of a staked position
	Matched    bool     // observed outcome matched the originally stored direction
}

// Resolution is the result of a successful Resolve call
type Resolution struct {
	Correct    *bool     `json:"correct,omitempty"`
	ProfitLoss *float64  `json:"profit_loss,omitempty"`
	Matched    bool      `json:"matched_direction"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// DeriveFunc computes the derived outcome fields for a record given the
// observed outcome. Returning an error aborts the resolution.
type DeriveFunc[P any] func(rec Record[P], outcome string) (Derived, error)

// Config parameterizes a Store for one feed
type Config[P any] struct {
	// Feed is the feed name used in logs and events
	Feed string
	// Table is the feed's table in feeds.db
	Table string

	// InitialStatus is stamped on records inserted by RefreshBatch and AddOrGet
	InitialStatus Status
	// PendingStatuses is the pre-decision set deleted by a refresh. Records in
	// any other status survive refreshes.
	PendingStatuses []Status
	// Transitions is the allowed-transition table for PromoteStatus. A status
	// missing from the map is terminal.
	Transitions map[Status][]Status
	// ApprovedStatus stamps approved_at when entered via PromoteStatus (optional)
	ApprovedStatus Status
	// CompletedStatus stamps completed_at when entered via PromoteStatus (optional)
	CompletedStatus Status

	// PeriodKey extracts the batching key from a payload. Required for AddOrGet;
	// RefreshBatch takes the period key explicitly.
	PeriodKey func(P) string
	// NaturalKey extracts the dedup key from a payload. Required for AddOrGet.
	NaturalKey func(P) string
	// Rank extracts the ordering value used by GetCurrent (optional, defaults to 0)
	Rank func(P) float64
	// Ascending orders GetCurrent results by ascending rank when true,
	// descending otherwise
	Ascending bool

	// Derive computes the resolution outcome. Feeds without a resolution stage
	// leave it nil; Resolve then fails with ErrInvalidArgument.
	Derive DeriveFunc[P]
}

func (c *Config[P]) validate() error {
	if c.Table == "" {
		return fmt.Errorf("%w: feed table is required", ErrInvalidArgument)
	}
	if c.InitialStatus == "" {
		return fmt.Errorf("%w: initial status is required", ErrInvalidArgument)
	}
	if len(c.PendingStatuses) == 0 {
		return fmt.Errorf("%w: at least one pending status is required", ErrInvalidArgument)
	}
	return nil
}

// pending reports whether a status is in the pre-decision set
func (c *Config[P]) pending(s Status) bool {
	for _, p := range c.PendingStatuses {
		if p == s {
			return true
		}
	}
	return false
}

// transitionAllowed checks the transition table
func (c *Config[P]) transitionAllowed(from, to Status) bool {
	for _, t := range c.Transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// knownStatus reports whether a status appears anywhere in the feed's
// transition table or pending set
func (c *Config[P]) knownStatus(s Status) bool {
	if s == c.InitialStatus || c.pending(s) {
		return true
	}
	for from, tos := range c.Transitions {
		if from == s {
			return true
		}
		for _, to := range tos {
			if to == s {
				return true
			}
		}
	}
	return false
}
