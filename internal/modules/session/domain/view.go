package domain

import (
	selection "fieldmap/internal/modules/selection/domain"
	ticket "fieldmap/internal/modules/ticket/domain"
)

const DefaultZoom = 13

type Marker struct {
	ID    string
	Lat   float64
	Lon   float64
	Label string
	Style selection.MarkerStyle
}

type Bounds struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// Viewport offers both an explicit center and zoom and a fitted bounding box;
// the renderer picks one.
type Viewport struct {
	CenterLat float64
	CenterLon float64
	Zoom      int
	Bounds    Bounds
}

type Detail struct {
	Ticket     ticket.Ticket
	Navigation string
	Photos     int
}

type Counts struct {
	Total        int
	Pending      int
	Completed    int
	Inaccessible int
	Photos       int
	PhotoTickets int
}

type ViewModel struct {
	SessionID string
	Source    string
	Loaded    bool
	Markers   []Marker
	Viewport  Viewport
	Choices   []string
	Selected  string
	Active    *Detail
	Counts    Counts
}

// View derives everything a surface renders from the state alone.
func View(s State, zoom int) ViewModel {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	vm := ViewModel{
		SessionID: s.ID,
		Source:    s.Source,
		Loaded:    s.Loaded(),
		Choices:   selection.PickerChoices(s.Store),
	}
	tickets := s.Store.Tickets()
	vm.Markers = make([]Marker, 0, len(tickets))
	for _, t := range tickets {
		vm.Markers = append(vm.Markers, Marker{
			ID:    t.ID,
			Lat:   t.Lat,
			Lon:   t.Lon,
			Label: selection.MarkerLabel(t.ID),
			Style: selection.StyleFor(t, s.Selection),
		})
	}
	if lat, lon, ok := s.Store.Center(); ok {
		minLat, minLon, maxLat, maxLon, _ := s.Store.Bounds()
		vm.Viewport = Viewport{
			CenterLat: lat,
			CenterLon: lon,
			Zoom:      zoom,
			Bounds:    Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon},
		}
	}
	if active, ok := s.Selection.Resolve(s.Store); ok {
		vm.Selected = active.Ticket.ID
		vm.Active = &Detail{Ticket: active.Ticket, Navigation: active.Navigation, Photos: s.Photos.Count(active.Ticket.ID)}
	}
	counts := s.Store.Counts()
	vm.Counts = Counts{
		Total:        s.Store.Len(),
		Pending:      counts[ticket.StatusPending],
		Completed:    counts[ticket.StatusCompleted],
		Inaccessible: counts[ticket.StatusInaccessible],
		Photos:       s.Photos.Total(),
		PhotoTickets: len(s.Photos.TicketIDs()),
	}
	return vm
}
