package usecase

import (
	"fmt"

	"fieldmap/internal/modules/session/domain"
	sessiondto "fieldmap/internal/modules/session/dto"
	ticket "fieldmap/internal/modules/ticket/domain"
	ticketdto "fieldmap/internal/modules/ticket/dto"
	apperrors "fieldmap/internal/platform/errors"
)

func toStore(tickets []ticketdto.Ticket) (ticket.Store, error) {
	converted := make([]ticket.Ticket, 0, len(tickets))
	for _, t := range tickets {
		status, err := ticket.ParseStatus(t.Status)
		if err != nil {
			return ticket.Store{}, fmt.Errorf("%w: ticket %s: %v", apperrors.ErrInvalidInput, t.ID, err)
		}
		converted = append(converted, ticket.Ticket{ID: t.ID, Lat: t.Lat, Lon: t.Lon, Notes: t.Notes, Status: status})
	}
	store, _ := ticket.NewStore(converted)
	return store, nil
}

func toTicketDTO(store ticket.Store) []ticketdto.Ticket {
	tickets := store.Tickets()
	out := make([]ticketdto.Ticket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketdto.Ticket{ID: t.ID, Lat: t.Lat, Lon: t.Lon, Notes: t.Notes, Status: string(t.Status)})
	}
	return out
}

func toImportSummary(s ticketdto.ImportSummary) sessiondto.ImportSummary {
	return sessiondto.ImportSummary{
		Rows:               s.Rows,
		Imported:           s.Imported,
		DroppedCoordinates: s.DroppedCoordinates,
		DroppedBlankID:     s.DroppedBlankID,
		DroppedDuplicates:  s.DroppedDuplicates,
	}
}

func toTicket(t ticket.Ticket) sessiondto.Ticket {
	return sessiondto.Ticket{ID: t.ID, Lat: t.Lat, Lon: t.Lon, Notes: t.Notes, Status: string(t.Status)}
}

func toView(vm domain.ViewModel, state domain.State) sessiondto.View {
	out := sessiondto.View{
		SessionID: vm.SessionID,
		Source:    vm.Source,
		Loaded:    vm.Loaded,
		Markers:   make([]sessiondto.Marker, 0, len(vm.Markers)),
		Viewport: sessiondto.Viewport{
			CenterLat: vm.Viewport.CenterLat,
			CenterLon: vm.Viewport.CenterLon,
			Zoom:      vm.Viewport.Zoom,
			MinLat:    vm.Viewport.Bounds.MinLat,
			MinLon:    vm.Viewport.Bounds.MinLon,
			MaxLat:    vm.Viewport.Bounds.MaxLat,
			MaxLon:    vm.Viewport.Bounds.MaxLon,
		},
		Choices:  vm.Choices,
		Selected: vm.Selected,
		Counts:   sessiondto.Counts(vm.Counts),
	}
	for _, m := range vm.Markers {
		out.Markers = append(out.Markers, sessiondto.Marker{ID: m.ID, Lat: m.Lat, Lon: m.Lon, Label: m.Label, Style: string(m.Style)})
	}
	if vm.Active != nil {
		out.Active = &sessiondto.Detail{Ticket: toTicket(vm.Active.Ticket), Navigation: vm.Active.Navigation, Photos: vm.Active.Photos}
	}
	tickets := state.Store.Tickets()
	out.Tickets = make([]sessiondto.Ticket, 0, len(tickets))
	for _, t := range tickets {
		out.Tickets = append(out.Tickets, toTicket(t))
	}
	return out
}
