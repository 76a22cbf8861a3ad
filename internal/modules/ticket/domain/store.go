package domain

import (
	"fmt"
	"strings"
)

// Store is the ordered ticket dataset of one session. Order is import order
// and ids are unique.
type Store struct {
	tickets []Ticket
	index   map[string]int
}

// NewStore keeps the first occurrence of every id and reports how many later
// duplicates were discarded.
func NewStore(tickets []Ticket) (Store, int) {
	s := Store{tickets: make([]Ticket, 0, len(tickets)), index: make(map[string]int, len(tickets))}
	dropped := 0
	for _, t := range tickets {
		if _, ok := s.index[t.ID]; ok {
			dropped++
			continue
		}
		s.index[t.ID] = len(s.tickets)
		s.tickets = append(s.tickets, t)
	}
	return s, dropped
}

func (s Store) Len() int { return len(s.tickets) }

func (s Store) Empty() bool { return len(s.tickets) == 0 }

// Tickets returns a copy in store order.
func (s Store) Tickets() []Ticket {
	out := make([]Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

func (s Store) Find(id string) (Ticket, bool) {
	i, ok := s.index[id]
	if !ok {
		return Ticket{}, false
	}
	return s.tickets[i], true
}

// Position is the store-order index of id, or -1.
func (s Store) Position(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// SearchSubstring returns the first ticket, in store order, whose id contains
// text. Matching is case sensitive.
func (s Store) SearchSubstring(text string) (Ticket, bool) {
	if text == "" {
		return Ticket{}, false
	}
	for _, t := range s.tickets {
		if strings.Contains(t.ID, text) {
			return t, true
		}
	}
	return Ticket{}, false
}

// WithStatus returns a copy of the store with one ticket's status replaced.
// The receiver is left untouched so callers can keep the prior state when a
// later step fails.
func (s Store) WithStatus(id string, status Status) (Store, Transition, error) {
	if err := status.Validate(); err != nil {
		return Store{}, Transition{}, err
	}
	i, ok := s.index[id]
	if !ok {
		return Store{}, Transition{}, fmt.Errorf("ticket %q is not in the store", id)
	}
	next := s.Clone()
	from := next.tickets[i].Status
	next.tickets[i].Status = status
	return next, Transition{TicketID: id, From: from, To: status}, nil
}

func (s Store) Clone() Store {
	next := Store{tickets: s.Tickets(), index: make(map[string]int, len(s.index))}
	for k, v := range s.index {
		next.index[k] = v
	}
	return next
}

// Counts tallies tickets by status.
func (s Store) Counts() map[Status]int {
	out := map[Status]int{StatusPending: 0, StatusCompleted: 0, StatusInaccessible: 0}
	for _, t := range s.tickets {
		out[t.Status]++
	}
	return out
}

// Bounds returns the bounding box of all coordinates. ok is false for an
// empty store.
func (s Store) Bounds() (minLat, minLon, maxLat, maxLon float64, ok bool) {
	if len(s.tickets) == 0 {
		return 0, 0, 0, 0, false
	}
	minLat, maxLat = s.tickets[0].Lat, s.tickets[0].Lat
	minLon, maxLon = s.tickets[0].Lon, s.tickets[0].Lon
	for _, t := range s.tickets[1:] {
		minLat = min(minLat, t.Lat)
		maxLat = max(maxLat, t.Lat)
		minLon = min(minLon, t.Lon)
		maxLon = max(maxLon, t.Lon)
	}
	return minLat, minLon, maxLat, maxLon, true
}

// Center is the mean coordinate, matching the map's default viewport.
func (s Store) Center() (lat, lon float64, ok bool) {
	if len(s.tickets) == 0 {
		return 0, 0, false
	}
	for _, t := range s.tickets {
		lat += t.Lat
		lon += t.Lon
	}
	n := float64(len(s.tickets))
	return lat / n, lon / n, true
}
