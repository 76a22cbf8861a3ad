package domain

import (
	"strconv"
	"strings"

	ticket "fieldmap/internal/modules/ticket/domain"
)

const (
	// NoSelectionSentinel is the first picker entry; picking it clears the selection.
	NoSelectionSentinel = "--- Select a Ticket ---"
	markerPrefix        = "ID:"
)

// Selection holds the id of the active ticket. The zero value means none.
type Selection struct {
	id string
}

func Of(id string) Selection { return Selection{id: id} }

func (s Selection) ID() string { return s.id }

func (s Selection) Active() bool { return s.id != "" }

func (s Selection) Is(id string) bool { return s.id != "" && s.id == id }

// ClickMarker toggles on a marker click. Labels that do not decode to a
// ticket in the store leave the selection unchanged.
func (s Selection) ClickMarker(label string, store ticket.Store) Selection {
	id, ok := ParseMarkerLabel(label)
	if !ok {
		return s
	}
	if _, found := store.Find(id); !found {
		return s
	}
	if s.id == id {
		return Selection{}
	}
	return Selection{id: id}
}

// Pick clears only on the sentinel entry. Empty or unknown choices keep the
// current selection.
func (s Selection) Pick(choice string, store ticket.Store) Selection {
	if choice == NoSelectionSentinel {
		return Selection{}
	}
	if _, found := store.Find(choice); !found {
		return s
	}
	return Selection{id: choice}
}

// Search selects the first ticket, in store order, whose id contains text
// verbatim. Blank text or no match keeps the current selection.
func (s Selection) Search(text string, store ticket.Store) Selection {
	if strings.TrimSpace(text) == "" {
		return s
	}
	match, found := store.SearchSubstring(text)
	if !found {
		return s
	}
	return Selection{id: match.ID}
}

// ActiveTicket is the resolved view of the selected ticket.
type ActiveTicket struct {
	Ticket     ticket.Ticket
	Navigation string
}

// Resolve returns the selected ticket, or false when nothing is selected or
// the id no longer exists in the store.
func (s Selection) Resolve(store ticket.Store) (ActiveTicket, bool) {
	if !s.Active() {
		return ActiveTicket{}, false
	}
	t, found := store.Find(s.id)
	if !found {
		return ActiveTicket{}, false
	}
	return ActiveTicket{Ticket: t, Navigation: NavigationLink(t.Lat, t.Lon)}, true
}

// Prune clears a selection whose ticket is gone.
func (s Selection) Prune(store ticket.Store) Selection {
	if _, ok := s.Resolve(store); !ok {
		return Selection{}
	}
	return s
}

type MarkerStyle string

const (
	StyleDone    MarkerStyle = "done"
	StyleBlocked MarkerStyle = "blocked"
	StyleActive  MarkerStyle = "active"
	StylePending MarkerStyle = "pending"
)

// StyleFor gives terminal statuses priority over selection.
func StyleFor(t ticket.Ticket, s Selection) MarkerStyle {
	switch {
	case t.Status == ticket.StatusCompleted:
		return StyleDone
	case t.Status == ticket.StatusInaccessible:
		return StyleBlocked
	case s.Is(t.ID):
		return StyleActive
	default:
		return StylePending
	}
}

func MarkerLabel(id string) string { return markerPrefix + id }

func ParseMarkerLabel(label string) (string, bool) {
	id, ok := strings.CutPrefix(label, markerPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func NavigationLink(lat, lon float64) string {
	return "google.navigation:q=" + strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

// PickerChoices lists the sentinel followed by ticket ids in store order.
func PickerChoices(store ticket.Store) []string {
	out := make([]string, 0, store.Len()+1)
	out = append(out, NoSelectionSentinel)
	for _, t := range store.Tickets() {
		out = append(out, t.ID)
	}
	return out
}
