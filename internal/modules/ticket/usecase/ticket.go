package usecase

import (
	"context"
	"errors"
	"fmt"

	"fieldmap/internal/modules/ticket/domain"
	"fieldmap/internal/modules/ticket/dto"
	ticketin "fieldmap/internal/modules/ticket/port/in"
	"fieldmap/internal/modules/ticket/service"
	apperrors "fieldmap/internal/platform/errors"
)

type Interactor struct {
	svc *service.TicketService
}

func NewInteractor(svc *service.TicketService) ticketin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error) {
	store, summary, err := i.svc.Import(ctx, input.Name, input.Reader)
	if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
		return dto.ImportOutput{Summary: toSummary(summary)}, err
	}
	return dto.ImportOutput{Source: input.Name, Tickets: toDTO(store.Tickets()), Summary: toSummary(summary)}, err
}

func (i *Interactor) Restore(ctx context.Context) (dto.RestoreOutput, error) {
	store, found, coerced, err := i.svc.Restore(ctx)
	if err != nil {
		return dto.RestoreOutput{}, err
	}
	return dto.RestoreOutput{Found: found, Tickets: toDTO(store.Tickets()), Coerced: coerced}, nil
}

func (i *Interactor) Transition(ctx context.Context, input dto.TransitionInput) (dto.TransitionOutput, error) {
	store, err := toStore(input.Tickets)
	if err != nil {
		return dto.TransitionOutput{}, err
	}
	status, err := domain.ParseStatus(input.Status)
	if err != nil {
		return dto.TransitionOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	next, tr, err := i.svc.Transition(ctx, store, input.ID, status)
	if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
		return dto.TransitionOutput{}, err
	}
	return dto.TransitionOutput{
		Tickets: toDTO(next.Tickets()),
		ID:      tr.TicketID,
		From:    string(tr.From),
		To:      string(tr.To),
		Changed: tr.Changed(),
	}, err
}

func (i *Interactor) Reset(ctx context.Context) error {
	return i.svc.Reset(ctx)
}

func (i *Interactor) Activity(ctx context.Context, limit int) ([]dto.ActivityOutput, error) {
	entries, err := i.svc.Activity(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActivityOutput, 0, len(entries))
	for _, a := range entries {
		out = append(out, dto.ActivityOutput{
			ID:       a.ID,
			Kind:     string(a.Kind),
			TicketID: a.TicketID,
			From:     string(a.From),
			To:       string(a.To),
			Detail:   a.Detail,
			At:       a.At,
		})
	}
	return out, nil
}

func (i *Interactor) Report(ctx context.Context, input dto.ReportInput) (dto.ReportOutput, error) {
	store, err := toStore(input.Tickets)
	if err != nil {
		return dto.ReportOutput{}, err
	}
	path, _, err := i.svc.Report(ctx, store, input.Source)
	if err != nil {
		return dto.ReportOutput{}, err
	}
	counts := store.Counts()
	return dto.ReportOutput{
		Path:         path,
		Tickets:      store.Len(),
		Pending:      counts[domain.StatusPending],
		Completed:    counts[domain.StatusCompleted],
		Inaccessible: counts[domain.StatusInaccessible],
	}, nil
}

// toDTO keeps store order.
func toDTO(tickets []domain.Ticket) []dto.Ticket {
	out := make([]dto.Ticket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, dto.Ticket{ID: t.ID, Lat: t.Lat, Lon: t.Lon, Notes: t.Notes, Status: string(t.Status)})
	}
	return out
}

func toStore(tickets []dto.Ticket) (domain.Store, error) {
	converted := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		status, err := domain.ParseStatus(t.Status)
		if err != nil {
			return domain.Store{}, fmt.Errorf("%w: ticket %s: %v", apperrors.ErrInvalidInput, t.ID, err)
		}
		converted = append(converted, domain.Ticket{ID: t.ID, Lat: t.Lat, Lon: t.Lon, Notes: t.Notes, Status: status})
	}
	store, _ := domain.NewStore(converted)
	return store, nil
}

func toSummary(s domain.ImportSummary) dto.ImportSummary {
	return dto.ImportSummary{
		Rows:               s.Rows,
		Imported:           s.Imported,
		DroppedCoordinates: s.DroppedCoordinates,
		DroppedBlankID:     s.DroppedBlankID,
		DroppedDuplicates:  s.DroppedDuplicates,
	}
}
