package usecase_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	photoout "fieldmap/internal/modules/photo/adapter/out"
	photoport "fieldmap/internal/modules/photo/port/out"
	photoservice "fieldmap/internal/modules/photo/service"
	photousecase "fieldmap/internal/modules/photo/usecase"
	"fieldmap/internal/modules/selection/domain"
	sessionout "fieldmap/internal/modules/session/adapter/out"
	sessiondto "fieldmap/internal/modules/session/dto"
	sessionin "fieldmap/internal/modules/session/port/in"
	sessionservice "fieldmap/internal/modules/session/service"
	sessionusecase "fieldmap/internal/modules/session/usecase"
	ticketout "fieldmap/internal/modules/ticket/adapter/out"
	ticketservice "fieldmap/internal/modules/ticket/service"
	ticketusecase "fieldmap/internal/modules/ticket/usecase"
	"fieldmap/internal/platform/clock"
	apperrors "fieldmap/internal/platform/errors"
	"fieldmap/internal/platform/logging"
)

const route = "Ticket,lat,lon,Notes\nT1,40.0,-74.0,leak\nT2,40.5,-73.5,gate\nT3,bad,-73.9,skip\n"

type sequence struct{ n int }

func (s *sequence) New() string {
	s.n++
	return fmt.Sprintf("session-%d", s.n)
}

type failingUploader struct{ calls int }

func (f *failingUploader) Upload(context.Context, photoport.UploadRequest) (photoport.UploadResult, error) {
	f.calls++
	return photoport.UploadResult{}, errors.New("bucket unreachable")
}

type recordingUploader struct{ names []string }

func (r *recordingUploader) Upload(_ context.Context, req photoport.UploadRequest) (photoport.UploadResult, error) {
	r.names = append(r.names, req.Name)
	return photoport.UploadResult{Location: "crew/" + req.Name}, nil
}

type events struct{ names []string }

func (e *events) EventApplied(name string, changed bool) {
	if changed {
		e.names = append(e.names, name)
	}
}

func (e *events) PhotoForwarded(bool) {}

type harness struct {
	dir      string
	snapshot string
	uploader photoport.Uploader
	recorder *events
	ids      *sequence
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		dir:      dir,
		snapshot: filepath.Join(dir, ".fieldmap", "tickets.csv"),
		recorder: &events{},
		ids:      &sequence{},
	}
}

// open wires a fresh interactor over the same workspace, as a restart would.
func (h *harness) open(t *testing.T) sessionin.Usecase {
	t.Helper()
	clk := clock.Fixed{At: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)}
	logger := logging.Discard()
	stateDir := filepath.Join(h.dir, ".fieldmap")

	activity, err := ticketout.NewSQLiteActivityLog(filepath.Join(stateDir, "activity.db"))
	require.NoError(t, err)
	tickets := ticketusecase.NewInteractor(ticketservice.NewTicketService(
		clk,
		ticketout.NewCSVSnapshotStore(h.snapshot),
		ticketout.NewSpreadsheetReader(),
		activity,
		ticketout.NewFileReportStore(h.dir),
		logger,
		ticketservice.Options{},
	))
	photos := photousecase.NewInteractor(photoservice.NewPhotoService(clk, photoout.NewZipArchiver(), h.uploader, logger, photoservice.Options{Folder: "crew"}))
	svc := sessionservice.NewSessionService(clk, h.ids, sessionout.NewFileActiveSessionStore(stateDir), sessionout.NewMarkdownSummaryStore(h.dir))
	return sessionusecase.NewInteractor(svc, tickets, photos, h.recorder, logger, sessionusecase.Options{Zoom: 13})
}

func importRoute(t *testing.T, uc sessionin.Usecase) sessiondto.ImportOutput {
	t.Helper()
	out, err := uc.Import(context.Background(), sessiondto.ImportInput{Name: "route.csv", Reader: strings.NewReader(route)})
	require.NoError(t, err)
	return out
}

func TestImportThenBlockClearsSelection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	uc := h.open(t)

	out := importRoute(t, uc)
	assert.Equal(t, 2, out.Summary.Imported)
	assert.Equal(t, 1, out.Summary.DroppedCoordinates)
	assert.Len(t, out.Outcome.View.Markers, 2)

	clicked, err := uc.ClickMarker(ctx, domain.MarkerLabel("T1"))
	require.NoError(t, err)
	assert.True(t, clicked.Changed)
	assert.Equal(t, "T1", clicked.View.Selected)
	require.NotNil(t, clicked.View.Active)

	blocked, err := uc.Transition(ctx, sessiondto.TransitionInput{Status: "Inaccessible"})
	require.NoError(t, err)
	assert.Equal(t, "T1", blocked.TicketID)
	assert.Equal(t, "Pending", blocked.From)
	assert.Equal(t, "Inaccessible", blocked.To)
	assert.Empty(t, blocked.Outcome.View.Selected)
	assert.Nil(t, blocked.Outcome.View.Active)
	assert.Equal(t, 1, blocked.Outcome.View.Counts.Inaccessible)

	_, err = uc.Transition(ctx, sessiondto.TransitionInput{Status: "Completed"})
	assert.ErrorIs(t, err, apperrors.ErrNoSelection)
}

func TestTransitionSurvivesRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	first := h.open(t)
	importRoute(t, first)
	_, err := first.Transition(ctx, sessiondto.TransitionInput{TicketID: "T2", Status: "Completed"})
	require.NoError(t, err)
	firstView, err := first.View(ctx)
	require.NoError(t, err)

	second := h.open(t)
	started, err := second.Start(ctx)
	require.NoError(t, err)
	assert.True(t, started.Restored)
	assert.True(t, started.Resumed)
	assert.Equal(t, firstView.SessionID, started.SessionID)
	assert.Equal(t, 2, started.Tickets)

	view, err := second.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "route.csv", view.Source)
	assert.Equal(t, 1, view.Counts.Completed)
	assert.Equal(t, firstView.Tickets, view.Tickets)

	active, err := second.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, active.Import.Imported)
}

func TestUnknownTicketTransitionIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	uc := h.open(t)
	importRoute(t, uc)

	out, err := uc.Transition(ctx, sessiondto.TransitionInput{TicketID: "T9", Status: "Completed"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.False(t, out.Outcome.Changed)
	assert.Equal(t, 2, out.Outcome.View.Counts.Pending)
}

func TestTransitionWithoutDataset(t *testing.T) {
	t.Parallel()
	uc := newHarness(t).open(t)
	_, err := uc.Transition(context.Background(), sessiondto.TransitionInput{TicketID: "T1", Status: "Completed"})
	assert.ErrorIs(t, err, apperrors.ErrNoDataset)

	_, err = uc.Report(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoDataset)
}

func TestEmptyExportIsValidArchive(t *testing.T) {
	t.Parallel()
	uc := newHarness(t).open(t)
	out, err := uc.ExportPhotos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, out.Entries)
	assert.Equal(t, "application/zip", out.ContentType)

	zr, err := zip.NewReader(bytes.NewReader(out.Data), int64(len(out.Data)))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}

func TestPhotosExportInStoreOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc := newHarness(t).open(t)
	importRoute(t, uc)

	_, err := uc.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: "T2", Photos: []sessiondto.Photo{{Filename: "gate.png", Data: []byte("p")}}})
	require.NoError(t, err)
	_, err = uc.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: "T1", Photos: []sessiondto.Photo{
		{Filename: "a.JPG", Data: []byte("a")},
		{Filename: "b.jpeg", Data: []byte("b")},
	}})
	require.NoError(t, err)

	out, err := uc.ExportPhotos(ctx)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(out.Data), int64(len(out.Data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Ticket_T1_Photo_0.jpg", "Ticket_T1_Photo_1.jpeg", "Ticket_T2_Photo_0.png"}, names)

	_, err = uc.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: "T9", Photos: []sessiondto.Photo{{Filename: "x.jpg"}}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoteFailureKeepsLocalBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	uploader := &failingUploader{}
	h.uploader = uploader
	uc := h.open(t)
	importRoute(t, uc)

	out, err := uc.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: "T1", Photos: []sessiondto.Photo{
		{Filename: "a.jpg", Data: []byte("a")},
		{Filename: "b.jpg", Data: []byte("b")},
	}})
	require.ErrorIs(t, err, apperrors.ErrRemoteUpload)
	assert.Contains(t, err.Error(), "2 of 2")
	assert.Equal(t, 2, uploader.calls)
	assert.Equal(t, 2, out.Stored)
	require.Len(t, out.Forwarded, 2)
	assert.Equal(t, "Ticket_T1_a.jpg", out.Forwarded[0].Name)
	assert.NotEmpty(t, out.Forwarded[0].Error)

	view, err := uc.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Counts.Photos)
	assert.Equal(t, 1, view.Counts.PhotoTickets)
}

func TestResubmittedBatchIsForwardedOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	uploader := &recordingUploader{}
	h.uploader = uploader
	uc := h.open(t)
	importRoute(t, uc)

	batch := []sessiondto.Photo{{Filename: "a.jpg", Data: []byte("a")}, {Filename: "b.jpg", Data: []byte("b")}}
	out, err := uc.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: "T1", Photos: batch})
	require.NoError(t, err)
	require.Len(t, out.Forwarded, 2)
	assert.Equal(t, "crew/Ticket_T1_a.jpg", out.Forwarded[0].Location)

	out, err = uc.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: "T1", Photos: batch})
	require.NoError(t, err)
	assert.Empty(t, out.Forwarded)
	assert.Equal(t, 2, out.Stored)
	assert.Len(t, uploader.names, 2)

	_, err = uc.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: "T1", Photos: append(batch, sessiondto.Photo{Filename: "c.jpg"})})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ticket_T1_a.jpg", "Ticket_T1_b.jpg", "Ticket_T1_c.jpg"}, uploader.names)
}

func TestRepeatedFilenameInBatchIsForwardedOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	uploader := &recordingUploader{}
	h.uploader = uploader
	uc := h.open(t)
	importRoute(t, uc)

	out, err := uc.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: "T1", Photos: []sessiondto.Photo{
		{Filename: "image.jpg", Data: []byte("first")},
		{Filename: "image.jpg", Data: []byte("second")},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ticket_T1_image.jpg"}, uploader.names)
	assert.Equal(t, 2, out.Stored)
	require.Len(t, out.Forwarded, 2)
	assert.False(t, out.Forwarded[0].Skipped)
	assert.True(t, out.Forwarded[1].Skipped)

	archive, err := uc.ExportPhotos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, archive.Entries)
}

func TestUnreadableActiveSessionDoesNotBlockReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	importRoute(t, h.open(t))
	activePath := filepath.Join(h.dir, ".fieldmap", "active-session.json")
	require.NoError(t, os.WriteFile(activePath, []byte("{not json"), 0o644))

	out, err := h.open(t).Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session-2", out.SessionID)
	assert.NoFileExists(t, h.snapshot)
	assert.NoFileExists(t, activePath)

	started, err := h.open(t).Start(ctx)
	require.NoError(t, err)
	assert.False(t, started.Restored)
	assert.False(t, started.Resumed)
}

func TestUnreadableActiveSessionStartsFresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	importRoute(t, h.open(t))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, ".fieldmap", "active-session.json"), []byte("{not json"), 0o644))

	uc := h.open(t)
	started, err := uc.Start(ctx)
	require.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.False(t, started.Resumed)
	assert.True(t, started.Restored)
	assert.Equal(t, "session-2", started.SessionID)

	view, err := uc.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Counts.Total)
	_, err = uc.Transition(ctx, sessiondto.TransitionInput{TicketID: "T1", Status: "Completed"})
	require.NoError(t, err)
}

func TestResetClearsSnapshotAndWritesNote(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	uc := h.open(t)
	importRoute(t, uc)

	out, err := uc.Reset(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, out.NotePath)
	assert.FileExists(t, out.NotePath)
	assert.NoFileExists(t, h.snapshot)

	view, err := uc.View(ctx)
	require.NoError(t, err)
	assert.False(t, view.Loaded)
	assert.Empty(t, view.Markers)

	_, err = uc.GetActive(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSession)

	restarted := h.open(t)
	started, err := restarted.Start(ctx)
	require.NoError(t, err)
	assert.False(t, started.Restored)
	assert.False(t, started.Resumed)
}

func TestReportWritesFieldReport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	uc := h.open(t)
	importRoute(t, uc)

	out, err := uc.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Tickets)
	raw, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "| T1 | Pending |")
}

func TestSelectionEventsAreRecorded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	uc := h.open(t)
	importRoute(t, uc)

	searched, err := uc.Search(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, "T2", searched.View.Selected)

	picked, err := uc.Pick(ctx, domain.NoSelectionSentinel)
	require.NoError(t, err)
	assert.Empty(t, picked.View.Selected)

	ignored, err := uc.ClickMarker(ctx, "not a marker")
	require.NoError(t, err)
	assert.False(t, ignored.Changed)

	assert.Equal(t, []string{"imported", "ticket_searched", "ticket_picked"}, h.recorder.names)
}
