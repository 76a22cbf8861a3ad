package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type Status string

const (
	StatusPending      Status = "Pending"
	StatusCompleted    Status = "Completed"
	StatusInaccessible Status = "Inaccessible"
)

const (
	NotesPlaceholder = "No notes."
	ManagedStart     = "<!-- fieldmap:tickets:start -->"
	ManagedEnd       = "<!-- fieldmap:tickets:end -->"
	SchemaVersion    = 1
)

func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending, nil
	case "completed", "complete", "done":
		return StatusCompleted, nil
	case "inaccessible", "blocked":
		return StatusInaccessible, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusCompleted, StatusInaccessible:
		return nil
	default:
		return fmt.Errorf("unsupported status %q", string(s))
	}
}

// Terminal reports whether no ordinary transition leads out of the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusInaccessible
}

type Ticket struct {
	ID     string
	Lat    float64
	Lon    float64
	Notes  string
	Status Status
}

func (t Ticket) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("ticket id is required")
	}
	if math.IsNaN(t.Lat) || math.IsNaN(t.Lon) || math.IsInf(t.Lat, 0) || math.IsInf(t.Lon, 0) {
		return fmt.Errorf("ticket %s: coordinates must be finite", t.ID)
	}
	return t.Status.Validate()
}

// Transition records one applied status change.
type Transition struct {
	TicketID string
	From     Status
	To       Status
	At       time.Time
}

// Changed is false for idempotent repeats.
func (t Transition) Changed() bool {
	return t.From != t.To
}

type ActivityKind string

const (
	ActivityImport     ActivityKind = "import"
	ActivityRestore    ActivityKind = "restore"
	ActivityTransition ActivityKind = "transition"
	ActivityReset      ActivityKind = "reset"
)

type Activity struct {
	ID       int64
	Kind     ActivityKind
	TicketID string
	From     Status
	To       Status
	Detail   string
	At       time.Time
}
