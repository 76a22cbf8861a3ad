package domain

import "time"

// ActiveSession is the on-disk marker of the session that owns the snapshot.
type ActiveSession struct {
	SessionID  string           `json:"session_id"`
	StartedAt  time.Time        `json:"started_at"`
	Source     string           `json:"source"`
	ImportedAt time.Time        `json:"imported_at"`
	Import     ImportProvenance `json:"import"`
}

type ImportProvenance struct {
	Rows               int `json:"rows"`
	Imported           int `json:"imported"`
	DroppedCoordinates int `json:"dropped_coordinates"`
	DroppedBlankID     int `json:"dropped_blank_id"`
	DroppedDuplicates  int `json:"dropped_duplicates"`
}

// Summary is written as a note when a session is reset.
type Summary struct {
	SessionID    string
	Source       string
	StartedAt    time.Time
	EndedAt      time.Time
	Total        int
	Pending      int
	Completed    int
	Inaccessible int
	Photos       int
}

func Summarize(s State, endedAt time.Time) Summary {
	vm := View(s, DefaultZoom)
	return Summary{
		SessionID:    s.ID,
		Source:       s.Source,
		StartedAt:    s.StartedAt,
		EndedAt:      endedAt,
		Total:        vm.Counts.Total,
		Pending:      vm.Counts.Pending,
		Completed:    vm.Counts.Completed,
		Inaccessible: vm.Counts.Inaccessible,
		Photos:       vm.Counts.Photos,
	}
}
