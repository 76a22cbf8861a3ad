package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	photo "fieldmap/internal/modules/photo/domain"
	photodto "fieldmap/internal/modules/photo/dto"
	photoin "fieldmap/internal/modules/photo/port/in"
	"fieldmap/internal/modules/session/domain"
	sessiondto "fieldmap/internal/modules/session/dto"
	sessionin "fieldmap/internal/modules/session/port/in"
	sessionout "fieldmap/internal/modules/session/port/out"
	"fieldmap/internal/modules/session/service"
	ticketdto "fieldmap/internal/modules/ticket/dto"
	ticketin "fieldmap/internal/modules/ticket/port/in"
	apperrors "fieldmap/internal/platform/errors"
)

type Options struct {
	Zoom int
}

// Interactor is the only owner of the live session state. The mutex is held
// for the whole of each operation, side effects included.
type Interactor struct {
	mu       sync.Mutex
	svc      *service.SessionService
	tickets  ticketin.Usecase
	photos   photoin.Usecase
	recorder sessionout.Recorder
	logger   *slog.Logger
	opts     Options

	started bool
	state   domain.State
}

func NewInteractor(
	svc *service.SessionService,
	tickets ticketin.Usecase,
	photos photoin.Usecase,
	recorder sessionout.Recorder,
	logger *slog.Logger,
	opts Options,
) sessionin.Usecase {
	return &Interactor{svc: svc, tickets: tickets, photos: photos, recorder: recorder, logger: logger, opts: opts}
}

func (i *Interactor) Start(ctx context.Context) (sessiondto.StartOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.start(ctx)
}

func (i *Interactor) start(ctx context.Context) (sessiondto.StartOutput, error) {
	state, active, resumed, beginErr := i.svc.Begin(ctx)
	if beginErr != nil && !errors.Is(beginErr, apperrors.ErrPersistence) {
		return sessiondto.StartOutput{}, beginErr
	}
	if beginErr != nil {
		i.logger.Warn("active session record unreadable, starting a new session", "session_id", state.ID, "error", beginErr)
	}
	i.state, i.started = state, true
	out := sessiondto.StartOutput{SessionID: state.ID, StartedAt: state.StartedAt, Resumed: resumed}

	restored, err := i.tickets.Restore(ctx)
	if err != nil {
		i.logger.Error("snapshot restore failed, starting empty", "error", err)
		return out, errors.Join(beginErr, fmt.Errorf("%w: restore snapshot: %v", apperrors.ErrPersistence, err))
	}
	if !restored.Found {
		i.logger.Info("session started", "session_id", state.ID, "restored", false)
		return out, beginErr
	}
	store, err := toStore(restored.Tickets)
	if err != nil {
		return out, errors.Join(beginErr, err)
	}
	i.apply(domain.Restored{Store: store, Source: active.Source})
	out.Restored, out.Tickets, out.Coerced = true, store.Len(), restored.Coerced
	i.logger.Info("session started", "session_id", state.ID, "restored", true, "tickets", store.Len(), "resumed", resumed)
	return out, beginErr
}

// ensureStarted lets surfaces skip the explicit Start. A failed restore still
// leaves a usable empty session.
func (i *Interactor) ensureStarted(ctx context.Context) error {
	if i.started {
		return nil
	}
	if _, err := i.start(ctx); err != nil && !errors.Is(err, apperrors.ErrPersistence) {
		return err
	}
	return nil
}

func (i *Interactor) View(ctx context.Context) (sessiondto.View, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureStarted(ctx); err != nil {
		return sessiondto.View{}, err
	}
	return i.view(), nil
}

func (i *Interactor) Import(ctx context.Context, input sessiondto.ImportInput) (sessiondto.ImportOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureStarted(ctx); err != nil {
		return sessiondto.ImportOutput{}, err
	}

	imported, err := i.tickets.Import(ctx, ticketdto.ImportInput{Name: input.Name, Reader: input.Reader})
	summary := toImportSummary(imported.Summary)
	if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
		i.logger.Warn("import rejected", "source", input.Name, "error", err)
		return sessiondto.ImportOutput{Summary: summary, Outcome: i.unchanged(domain.Imported{})}, err
	}
	store, convErr := toStore(imported.Tickets)
	if convErr != nil {
		return sessiondto.ImportOutput{Summary: summary, Outcome: i.unchanged(domain.Imported{})}, convErr
	}

	ev := domain.Imported{Store: store, Source: imported.Source}
	delta := i.apply(ev)
	_, markErr := i.svc.RecordImport(ctx, i.state, domain.ImportProvenance(summary))
	return sessiondto.ImportOutput{Summary: summary, Outcome: i.outcome(ev, delta)}, errors.Join(err, markErr)
}

func (i *Interactor) ClickMarker(ctx context.Context, label string) (sessiondto.Outcome, error) {
	return i.selectionEvent(ctx, domain.MarkerClicked{Label: label})
}

func (i *Interactor) Pick(ctx context.Context, choice string) (sessiondto.Outcome, error) {
	return i.selectionEvent(ctx, domain.TicketPicked{Choice: choice})
}

func (i *Interactor) Search(ctx context.Context, text string) (sessiondto.Outcome, error) {
	return i.selectionEvent(ctx, domain.TicketSearched{Text: text})
}

func (i *Interactor) selectionEvent(ctx context.Context, ev domain.Event) (sessiondto.Outcome, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureStarted(ctx); err != nil {
		return sessiondto.Outcome{}, err
	}
	delta := i.apply(ev)
	return i.outcome(ev, delta), nil
}

func (i *Interactor) Transition(ctx context.Context, input sessiondto.TransitionInput) (sessiondto.TransitionOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureStarted(ctx); err != nil {
		return sessiondto.TransitionOutput{}, err
	}

	id := input.TicketID
	if id == "" {
		id = i.state.Selection.ID()
	}
	if id == "" {
		return sessiondto.TransitionOutput{Outcome: i.unchanged(domain.StatusChanged{})}, apperrors.ErrNoSelection
	}
	if !i.state.Loaded() {
		return sessiondto.TransitionOutput{TicketID: id, Outcome: i.unchanged(domain.StatusChanged{})}, apperrors.ErrNoDataset
	}

	result, err := i.tickets.Transition(ctx, ticketdto.TransitionInput{Tickets: toTicketDTO(i.state.Store), ID: id, Status: input.Status})
	if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
		if errors.Is(err, apperrors.ErrNotFound) {
			i.logger.Info("stale transition ignored", "ticket_id", id)
		}
		return sessiondto.TransitionOutput{TicketID: id, Outcome: i.unchanged(domain.StatusChanged{})}, err
	}
	store, convErr := toStore(result.Tickets)
	if convErr != nil {
		return sessiondto.TransitionOutput{TicketID: id, Outcome: i.unchanged(domain.StatusChanged{})}, convErr
	}
	ev := domain.StatusChanged{Store: store, TicketID: id}
	delta := i.apply(ev)
	return sessiondto.TransitionOutput{
		TicketID: id,
		From:     result.From,
		To:       result.To,
		Outcome:  i.outcome(ev, delta),
	}, err
}

// SubmitPhotos stores the batch first; forwarding runs afterwards and its
// failures never undo the local batch.
func (i *Interactor) SubmitPhotos(ctx context.Context, input sessiondto.SubmitPhotosInput) (sessiondto.SubmitPhotosOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureStarted(ctx); err != nil {
		return sessiondto.SubmitPhotosOutput{}, err
	}

	id := input.TicketID
	if id == "" {
		id = i.state.Selection.ID()
	}
	if id == "" {
		return sessiondto.SubmitPhotosOutput{Outcome: i.unchanged(domain.PhotosSubmitted{})}, apperrors.ErrNoSelection
	}
	if _, ok := i.state.Store.Find(id); !ok {
		return sessiondto.SubmitPhotosOutput{TicketID: id, Outcome: i.unchanged(domain.PhotosSubmitted{})}, fmt.Errorf("%w: ticket %q", apperrors.ErrNotFound, id)
	}

	blobs := make([]photo.Blob, 0, len(input.Photos))
	for _, p := range input.Photos {
		blobs = append(blobs, photo.Blob{Filename: p.Filename, Data: p.Data})
	}
	ev := domain.PhotosSubmitted{TicketID: id, Blobs: blobs}
	delta := i.apply(ev)
	out := sessiondto.SubmitPhotosOutput{TicketID: id, Stored: i.state.Photos.Count(id)}

	var forwardErr error
	if i.photos != nil && i.photos.ForwardingEnabled() {
		out.Forwarded, forwardErr = i.forward(ctx, id)
	}
	out.Outcome = i.outcome(ev, delta)
	return out, forwardErr
}

func (i *Interactor) forward(ctx context.Context, ticketID string) ([]sessiondto.ForwardResult, error) {
	var skipped []sessiondto.ForwardResult
	for _, b := range i.state.Photos.Shadowed(ticketID) {
		i.logger.Warn("duplicate filename in batch, not forwarded", "ticket_id", ticketID, "filename", b.Filename)
		skipped = append(skipped, sessiondto.ForwardResult{Filename: b.Filename, Name: photo.RemoteName(ticketID, b.Filename), Skipped: true})
	}
	pending := i.state.Photos.Pending(ticketID)
	if len(pending) == 0 {
		return skipped, nil
	}
	input := photodto.ForwardInput{TicketID: ticketID, Blobs: make([]photodto.Blob, 0, len(pending))}
	for _, b := range pending {
		input.Blobs = append(input.Blobs, photodto.Blob{Filename: b.Filename, Data: b.Data})
	}
	forwarded, err := i.photos.Forward(ctx, input)
	if err != nil {
		return skipped, fmt.Errorf("%w: %v", apperrors.ErrRemoteUpload, err)
	}

	results := make([]sessiondto.ForwardResult, 0, len(forwarded.Outcomes)+len(skipped))
	keys := make([]photo.Key, 0, len(forwarded.Outcomes))
	failed := 0
	for _, o := range forwarded.Outcomes {
		results = append(results, sessiondto.ForwardResult{Filename: o.Filename, Name: o.Name, Location: o.Location, Error: o.Error})
		if i.recorder != nil {
			i.recorder.PhotoForwarded(o.OK())
		}
		if !o.OK() {
			failed++
			continue
		}
		keys = append(keys, photo.Key{TicketID: o.TicketID, Filename: o.Filename})
	}
	i.apply(domain.PhotosForwarded{Keys: keys})
	attempted := len(results)
	results = append(results, skipped...)
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d photos for %s", apperrors.ErrRemoteUpload, failed, attempted, ticketID)
	}
	return results, nil
}

func (i *Interactor) ExportPhotos(ctx context.Context) (sessiondto.ExportOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureStarted(ctx); err != nil {
		return sessiondto.ExportOutput{}, err
	}
	input := photodto.ExportInput{Order: i.state.Order()}
	for _, id := range i.state.Photos.TicketIDs() {
		batch := photodto.Batch{TicketID: id}
		for _, b := range i.state.Photos.Batch(id) {
			batch.Blobs = append(batch.Blobs, photodto.Blob{Filename: b.Filename, Data: b.Data})
		}
		input.Batches = append(input.Batches, batch)
	}
	archive, err := i.photos.Export(ctx, input)
	if err != nil {
		return sessiondto.ExportOutput{}, err
	}
	return sessiondto.ExportOutput{
		Filename:    archive.Filename,
		ContentType: archive.ContentType,
		Data:        archive.Data,
		Entries:     archive.Entries,
	}, nil
}

func (i *Interactor) Report(ctx context.Context) (sessiondto.ReportOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureStarted(ctx); err != nil {
		return sessiondto.ReportOutput{}, err
	}
	if !i.state.Loaded() {
		return sessiondto.ReportOutput{}, apperrors.ErrNoDataset
	}
	report, err := i.tickets.Report(ctx, ticketdto.ReportInput{Tickets: toTicketDTO(i.state.Store), Source: i.state.Source})
	if err != nil {
		return sessiondto.ReportOutput{}, err
	}
	return sessiondto.ReportOutput{
		Path:         report.Path,
		Tickets:      report.Tickets,
		Pending:      report.Pending,
		Completed:    report.Completed,
		Inaccessible: report.Inaccessible,
	}, nil
}

// Reset always clears the in-memory session. Failures to remove files are
// reported after the fact.
func (i *Interactor) Reset(ctx context.Context) (sessiondto.ResetOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.ensureStarted(ctx); err != nil {
		return sessiondto.ResetOutput{}, err
	}

	path, closeErr := i.svc.Close(ctx, i.state)
	var resetErr error
	if err := i.tickets.Reset(ctx); err != nil {
		resetErr = fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	i.apply(domain.Reset{})
	i.logger.Info("session reset", "session_id", i.state.ID, "note", path)
	return sessiondto.ResetOutput{SessionID: i.state.ID, NotePath: path}, errors.Join(closeErr, resetErr)
}

func (i *Interactor) GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error) {
	active, err := i.svc.Active(ctx)
	if err != nil {
		return sessiondto.ActiveSessionOutput{}, err
	}
	return sessiondto.ActiveSessionOutput{
		SessionID:  active.SessionID,
		StartedAt:  active.StartedAt,
		Source:     active.Source,
		ImportedAt: active.ImportedAt,
		Import:     sessiondto.ImportSummary(active.Import),
	}, nil
}

func (i *Interactor) apply(ev domain.Event) domain.Delta {
	next, delta := domain.Apply(i.state, ev)
	i.state = next
	if i.recorder != nil {
		i.recorder.EventApplied(ev.Name(), delta.Changed())
	}
	i.logger.Debug("session event", "event", ev.Name(), "changed", delta.Changed())
	return delta
}

func (i *Interactor) outcome(ev domain.Event, delta domain.Delta) sessiondto.Outcome {
	return sessiondto.Outcome{Event: ev.Name(), Changed: delta.Changed(), View: i.view()}
}

func (i *Interactor) unchanged(ev domain.Event) sessiondto.Outcome {
	return sessiondto.Outcome{Event: ev.Name(), View: i.view()}
}

func (i *Interactor) view() sessiondto.View {
	return toView(domain.View(i.state, i.opts.Zoom), i.state)
}
