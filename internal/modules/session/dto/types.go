package dto

import (
	"io"
	"time"
)

type Ticket struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Notes  string  `json:"notes"`
	Status string  `json:"status"`
}

// Marker is one entry of the map-rendering contract.
type Marker struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
	Style string  `json:"style"`
}

type Viewport struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Zoom      int     `json:"zoom"`
	MinLat    float64 `json:"min_lat"`
	MinLon    float64 `json:"min_lon"`
	MaxLat    float64 `json:"max_lat"`
	MaxLon    float64 `json:"max_lon"`
}

type Detail struct {
	Ticket     Ticket `json:"ticket"`
	Navigation string `json:"navigation"`
	Photos     int    `json:"photos"`
}

type Counts struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	Completed    int `json:"completed"`
	Inaccessible int `json:"inaccessible"`
	Photos       int `json:"photos"`
	PhotoTickets int `json:"photo_tickets"`
}

type View struct {
	SessionID string   `json:"session_id"`
	Source    string   `json:"source,omitempty"`
	Loaded    bool     `json:"loaded"`
	Markers   []Marker `json:"markers"`
	Viewport  Viewport `json:"viewport"`
	Choices   []string `json:"choices"`
	Selected  string   `json:"selected,omitempty"`
	Active    *Detail  `json:"active,omitempty"`
	Counts    Counts   `json:"counts"`
	Tickets   []Ticket `json:"tickets"`
}

// Outcome is returned by every event. View is the state after the event, and
// Changed is false when the event was ignored.
type Outcome struct {
	Event   string `json:"event"`
	Changed bool   `json:"changed"`
	View    View   `json:"view"`
}

type StartOutput struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	Restored  bool      `json:"restored"`
	Resumed   bool      `json:"resumed"`
	Tickets   int       `json:"tickets"`
	// Coerced counts snapshot statuses that loaded as Pending.
	Coerced int `json:"coerced"`
}

type ImportInput struct {
	Name   string
	Reader io.Reader
}

type ImportSummary struct {
	Rows               int `json:"rows"`
	Imported           int `json:"imported"`
	DroppedCoordinates int `json:"dropped_coordinates"`
	DroppedBlankID     int `json:"dropped_blank_id"`
	DroppedDuplicates  int `json:"dropped_duplicates"`
}

type ImportOutput struct {
	Summary ImportSummary `json:"summary"`
	Outcome Outcome       `json:"outcome"`
}

type TransitionInput struct {
	// TicketID defaults to the selected ticket when empty.
	TicketID string
	Status   string
}

type TransitionOutput struct {
	TicketID string  `json:"ticket_id"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Outcome  Outcome `json:"outcome"`
}

type Photo struct {
	Filename string
	Data     []byte
}

type SubmitPhotosInput struct {
	// TicketID defaults to the selected ticket when empty.
	TicketID string
	Photos   []Photo
}

type ForwardResult struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
	// Skipped marks a blob whose filename repeats an earlier one in the batch.
	Skipped bool `json:"skipped,omitempty"`
}

type SubmitPhotosOutput struct {
	TicketID  string          `json:"ticket_id"`
	Stored    int             `json:"stored"`
	Forwarded []ForwardResult `json:"forwarded,omitempty"`
	Outcome   Outcome         `json:"outcome"`
}

type ExportOutput struct {
	Filename    string
	ContentType string
	Data        []byte
	Entries     int
}

type ReportOutput struct {
	Path         string `json:"path"`
	Tickets      int    `json:"tickets"`
	Pending      int    `json:"pending"`
	Completed    int    `json:"completed"`
	Inaccessible int    `json:"inaccessible"`
}

type ResetOutput struct {
	SessionID string `json:"session_id"`
	NotePath  string `json:"note_path,omitempty"`
}

type ActiveSessionOutput struct {
	SessionID  string        `json:"session_id"`
	StartedAt  time.Time     `json:"started_at"`
	Source     string        `json:"source"`
	ImportedAt time.Time     `json:"imported_at"`
	Import     ImportSummary `json:"import"`
}
