package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrTooFewColumns = errors.New("table needs at least 3 columns: id, latitude, longitude")
	ErrNoValidRows   = errors.New("no rows with numeric latitude and longitude")
)

type ImportSummary struct {
	Rows               int
	Imported           int
	DroppedCoordinates int
	DroppedBlankID     int
	DroppedDuplicates  int
}

// ImportTable interprets rows strictly by position. The first row is the
// header line and only its width matters: notes come from column 3 when the
// header has at least four columns.
func ImportTable(rows [][]string) (Store, ImportSummary, error) {
	if len(rows) == 0 || len(rows[0]) < 3 {
		return Store{}, ImportSummary{}, ErrTooFewColumns
	}
	hasNotes := len(rows[0]) >= 4
	body := rows[1:]

	summary := ImportSummary{Rows: len(body)}
	tickets := make([]Ticket, 0, len(body))
	for _, row := range body {
		lat, latOK := parseCoordinate(cell(row, 1))
		lon, lonOK := parseCoordinate(cell(row, 2))
		if !latOK || !lonOK {
			summary.DroppedCoordinates++
			continue
		}
		id := cell(row, 0)
		if id == "" {
			summary.DroppedBlankID++
			continue
		}
		notes := NotesPlaceholder
		if hasNotes {
			if v := cell(row, 3); v != "" {
				notes = v
			}
		}
		tickets = append(tickets, Ticket{ID: id, Lat: lat, Lon: lon, Notes: notes, Status: StatusPending})
	}

	store, dups := NewStore(tickets)
	summary.DroppedDuplicates = dups
	summary.Imported = store.Len()
	if store.Empty() {
		return Store{}, summary, ErrNoValidRows
	}
	return store, summary, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseCoordinate accepts any finite decimal; everything else counts as null.
func parseCoordinate(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
