package domain

import (
	"time"

	photo "fieldmap/internal/modules/photo/domain"
	selection "fieldmap/internal/modules/selection/domain"
	ticket "fieldmap/internal/modules/ticket/domain"
)

const SchemaVersion = 1

// State is the single aggregate of a field session. Every field is a value;
// Apply never mutates its input.
type State struct {
	ID        string
	StartedAt time.Time
	Source    string
	Store     ticket.Store
	Selection selection.Selection
	Photos    photo.Session
}

func (s State) Loaded() bool { return !s.Store.Empty() }

// Order lists ticket ids in store order.
func (s State) Order() []string {
	tickets := s.Store.Tickets()
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

// Delta tells the surfaces what to redraw.
type Delta struct {
	StoreChanged     bool
	SelectionChanged bool
	PhotosChanged    bool
	Cleared          bool
}

func (d Delta) Changed() bool {
	return d.StoreChanged || d.SelectionChanged || d.PhotosChanged || d.Cleared
}

type Event interface {
	Name() string
}

// Imported replaces the dataset. Selection and photos belong to the old
// dataset and are dropped.
type Imported struct {
	Store  ticket.Store
	Source string
}

// Restored installs the snapshot loaded at session start.
type Restored struct {
	Store  ticket.Store
	Source string
}

type MarkerClicked struct{ Label string }

type TicketPicked struct{ Choice string }

type TicketSearched struct{ Text string }

// StatusChanged carries the store after a successful transition.
type StatusChanged struct {
	Store    ticket.Store
	TicketID string
}

type PhotosSubmitted struct {
	TicketID string
	Blobs    []photo.Blob
}

type PhotosForwarded struct{ Keys []photo.Key }

type Reset struct{}

func (Imported) Name() string        { return "imported" }
func (Restored) Name() string        { return "restored" }
func (MarkerClicked) Name() string   { return "marker_clicked" }
func (TicketPicked) Name() string    { return "ticket_picked" }
func (TicketSearched) Name() string  { return "ticket_searched" }
func (StatusChanged) Name() string   { return "status_changed" }
func (PhotosSubmitted) Name() string { return "photos_submitted" }
func (PhotosForwarded) Name() string { return "photos_forwarded" }
func (Reset) Name() string           { return "reset" }

// Apply folds one event into the state. Events that reference tickets not in
// the store leave the state unchanged.
func Apply(s State, e Event) (State, Delta) {
	switch ev := e.(type) {
	case Imported:
		next := State{ID: s.ID, StartedAt: s.StartedAt, Source: ev.Source, Store: ev.Store}
		return next, Delta{StoreChanged: true, SelectionChanged: s.Selection.Active(), PhotosChanged: !s.Photos.Empty()}
	case Restored:
		next := s
		next.Store, next.Source = ev.Store, ev.Source
		next.Selection = s.Selection.Prune(ev.Store)
		return next, Delta{StoreChanged: true, SelectionChanged: next.Selection != s.Selection}
	case MarkerClicked:
		return withSelection(s, s.Selection.ClickMarker(ev.Label, s.Store))
	case TicketPicked:
		return withSelection(s, s.Selection.Pick(ev.Choice, s.Store))
	case TicketSearched:
		return withSelection(s, s.Selection.Search(ev.Text, s.Store))
	case StatusChanged:
		if _, ok := ev.Store.Find(ev.TicketID); !ok {
			return s, Delta{}
		}
		next := s
		next.Store = ev.Store
		next.Selection = selection.Selection{}
		return next, Delta{StoreChanged: true, SelectionChanged: s.Selection.Active()}
	case PhotosSubmitted:
		if _, ok := s.Store.Find(ev.TicketID); !ok {
			return s, Delta{}
		}
		next := s
		next.Photos = s.Photos.Submit(ev.TicketID, ev.Blobs)
		return next, Delta{PhotosChanged: true}
	case PhotosForwarded:
		if len(ev.Keys) == 0 {
			return s, Delta{}
		}
		next := s
		next.Photos = s.Photos.MarkForwarded(ev.Keys...)
		return next, Delta{}
	case Reset:
		return State{ID: s.ID, StartedAt: s.StartedAt}, Delta{StoreChanged: true, SelectionChanged: true, PhotosChanged: true, Cleared: true}
	default:
		return s, Delta{}
	}
}

func withSelection(s State, sel selection.Selection) (State, Delta) {
	if sel == s.Selection {
		return s, Delta{}
	}
	next := s
	next.Selection = sel
	return next, Delta{SelectionChanged: true}
}
