package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fieldmap/internal/modules/ticket/domain"
	ticketout "fieldmap/internal/modules/ticket/port/out"
	"fieldmap/internal/platform/clock"
	apperrors "fieldmap/internal/platform/errors"
)

type Options struct {
	// AllowReopen enables the Pending transition out of a terminal status.
	AllowReopen bool
}

type TicketService struct {
	clock    clock.Clock
	snapshot ticketout.SnapshotStore
	reader   ticketout.TableReader
	activity ticketout.ActivityLog
	reports  ticketout.ReportStore
	logger   *slog.Logger
	opts     Options
}

func NewTicketService(
	clock clock.Clock,
	snapshot ticketout.SnapshotStore,
	reader ticketout.TableReader,
	activity ticketout.ActivityLog,
	reports ticketout.ReportStore,
	logger *slog.Logger,
	opts Options,
) *TicketService {
	return &TicketService{
		clock:    clock,
		snapshot: snapshot,
		reader:   reader,
		activity: activity,
		reports:  reports,
		logger:   logger,
		opts:     opts,
	}
}

// Import parses the table and overwrites the snapshot. A snapshot write
// failure is returned wrapped in ErrPersistence together with the valid store.
func (s *TicketService) Import(ctx context.Context, name string, r io.Reader) (domain.Store, domain.ImportSummary, error) {
	if r == nil {
		return domain.Store{}, domain.ImportSummary{}, fmt.Errorf("%w: no file provided", apperrors.ErrImport)
	}
	rows, err := s.reader.ReadRows(ctx, name, r)
	if err != nil {
		return domain.Store{}, domain.ImportSummary{}, fmt.Errorf("%w: read %s: %v", apperrors.ErrImport, name, err)
	}
	store, summary, err := domain.ImportTable(rows)
	if err != nil {
		return domain.Store{}, summary, fmt.Errorf("%w: %v", apperrors.ErrImport, err)
	}
	s.logger.Info("tickets imported",
		"source", name,
		"rows", summary.Rows,
		"imported", summary.Imported,
		"dropped_coordinates", summary.DroppedCoordinates,
		"dropped_duplicates", summary.DroppedDuplicates,
	)
	s.record(ctx, domain.Activity{Kind: domain.ActivityImport, Detail: fmt.Sprintf("%s: %d tickets", name, summary.Imported)})

	if err := s.snapshot.Save(ctx, store.Tickets()); err != nil {
		s.logger.Error("snapshot write failed", "error", err)
		return store, summary, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return store, summary, nil
}

// Restore loads the snapshot verbatim. found is false when none exists.
func (s *TicketService) Restore(ctx context.Context) (domain.Store, bool, int, error) {
	rows, err := s.snapshot.Load(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoDataset) {
			return domain.Store{}, false, 0, nil
		}
		return domain.Store{}, false, 0, err
	}
	tickets := make([]domain.Ticket, 0, len(rows))
	coerced := 0
	for _, row := range rows {
		t := row.Ticket
		status, parseErr := domain.ParseStatus(row.RawStatus)
		if parseErr != nil {
			coerced++
			s.logger.Warn("unreadable snapshot status, loading as pending", "ticket_id", t.ID, "status", row.RawStatus)
			status = domain.StatusPending
		}
		t.Status = status
		tickets = append(tickets, t)
	}
	store, dups := domain.NewStore(tickets)
	if dups > 0 {
		s.logger.Warn("duplicate ids in snapshot, keeping first", "dropped", dups)
	}
	if store.Empty() {
		return domain.Store{}, false, coerced, nil
	}
	s.record(ctx, domain.Activity{Kind: domain.ActivityRestore, Detail: fmt.Sprintf("%d tickets", store.Len())})
	return store, true, coerced, nil
}

// Transition applies one status change and persists the full store. On
// ErrPersistence the returned store is still the new authoritative state.
func (s *TicketService) Transition(ctx context.Context, store domain.Store, id string, status domain.Status) (domain.Store, domain.Transition, error) {
	current, ok := store.Find(id)
	if !ok {
		return store, domain.Transition{}, fmt.Errorf("%w: ticket %q", apperrors.ErrNotFound, id)
	}
	if status == domain.StatusPending && current.Status.Terminal() && !s.opts.AllowReopen {
		return store, domain.Transition{}, fmt.Errorf("%w: %s is %s and reopening is disabled", apperrors.ErrTransitionNotAllowed, id, current.Status)
	}
	next, tr, err := store.WithStatus(id, status)
	if err != nil {
		return store, domain.Transition{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	tr.At = s.clock.Now()
	if tr.Changed() {
		s.logger.Info("ticket status changed", "ticket_id", id, "from", tr.From, "to", tr.To)
		s.record(ctx, domain.Activity{Kind: domain.ActivityTransition, TicketID: id, From: tr.From, To: tr.To, At: tr.At})
	}
	if err := s.snapshot.Save(ctx, next.Tickets()); err != nil {
		s.logger.Error("snapshot write failed", "ticket_id", id, "error", err)
		return next, tr, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return next, tr, nil
}

// Reset deletes the snapshot and the activity trail.
func (s *TicketService) Reset(ctx context.Context) error {
	var errs []error
	if err := s.snapshot.Delete(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.activity != nil {
		if err := s.activity.Reset(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.Info("ticket data reset")
	return nil
}

func (s *TicketService) Activity(ctx context.Context, limit int) ([]domain.Activity, error) {
	if s.activity == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.activity.List(ctx, limit)
}

func (s *TicketService) Report(ctx context.Context, store domain.Store, source string) (string, domain.Report, error) {
	if store.Empty() {
		return "", domain.Report{}, apperrors.ErrNoDataset
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = "unknown"
	}
	report := domain.BuildReport(store, source, s.clock.Now())
	path, err := s.reports.Write(ctx, report)
	if err != nil {
		return "", domain.Report{}, err
	}
	return path, report, nil
}

func (s *TicketService) record(ctx context.Context, activity domain.Activity) {
	if s.activity == nil {
		return
	}
	if activity.At.IsZero() {
		activity.At = s.clock.Now()
	}
	if err := s.activity.Append(ctx, activity); err != nil {
		s.logger.Warn("activity log append failed", "kind", activity.Kind, "error", err)
	}
}
