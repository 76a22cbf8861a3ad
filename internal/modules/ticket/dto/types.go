package dto

import (
	"io"
	"time"
)

type Ticket struct {
	ID     string
	Lat    float64
	Lon    float64
	Notes  string
	Status string
}

type ImportInput struct {
	Name   string
	Reader io.Reader
}

type ImportSummary struct {
	Rows               int
	Imported           int
	DroppedCoordinates int
	DroppedBlankID     int
	DroppedDuplicates  int
}

type ImportOutput struct {
	Source  string
	Tickets []Ticket
	Summary ImportSummary
}

type RestoreOutput struct {
	Found   bool
	Tickets []Ticket
	// Coerced counts snapshot rows whose status was unreadable and loaded as Pending.
	Coerced int
}

type TransitionInput struct {
	Tickets []Ticket
	ID      string
	Status  string
}

// TransitionOutput is returned alongside an apperrors.ErrPersistence error:
// the in-memory transition stands even when the snapshot could not be written.
type TransitionOutput struct {
	Tickets []Ticket
	ID      string
	From    string
	To      string
	Changed bool
}

type ActivityOutput struct {
	ID       int64     `json:"id"`
	Kind     string    `json:"kind"`
	TicketID string    `json:"ticket_id,omitempty"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

type ReportInput struct {
	Tickets []Ticket
	Source  string
}

type ReportOutput struct {
	Path         string
	Tickets      int
	Pending      int
	Completed    int
	Inaccessible int
}
