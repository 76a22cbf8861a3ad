package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldmap/internal/modules/photo/domain"
	photoout "fieldmap/internal/modules/photo/port/out"
	"fieldmap/internal/modules/photo/service"
	"fieldmap/internal/platform/clock"
	apperrors "fieldmap/internal/platform/errors"
	"fieldmap/internal/platform/logging"
)

type recordingUploader struct {
	requests []photoout.UploadRequest
	failOn   string
}

func (u *recordingUploader) Upload(_ context.Context, req photoout.UploadRequest) (photoout.UploadResult, error) {
	u.requests = append(u.requests, req)
	if req.Name == u.failOn {
		return photoout.UploadResult{}, errors.New("quota exceeded")
	}
	return photoout.UploadResult{Location: "drive://" + req.Folder + "/" + req.Name}, nil
}

type countingArchiver struct {
	entries []domain.Entry
}

func (a *countingArchiver) Write(entries []domain.Entry, _ time.Time) ([]byte, error) {
	a.entries = entries
	return []byte("PK"), nil
}

func TestForwardReportsPerBlobFailures(t *testing.T) {
	t.Parallel()
	uploader := &recordingUploader{failOn: "Ticket_T1_b.jpg"}
	svc := service.NewPhotoService(clock.SystemClock{}, &countingArchiver{}, uploader, logging.Discard(), service.Options{Folder: "crew"})

	outcomes := svc.Forward(context.Background(), "T1", []domain.Blob{{Filename: "a.jpg"}, {Filename: "b.jpg"}, {Filename: "c.png"}})
	if len(outcomes) != 3 || len(uploader.requests) != 3 {
		t.Fatalf("every blob must be attempted once, got %d outcomes %d requests", len(outcomes), len(uploader.requests))
	}
	if outcomes[0].Err != nil || outcomes[0].Location != "drive://crew/Ticket_T1_a.jpg" {
		t.Fatalf("unexpected first outcome: %+v", outcomes[0])
	}
	if !errors.Is(outcomes[1].Err, apperrors.ErrRemoteUpload) {
		t.Fatalf("expected remote upload error, got %v", outcomes[1].Err)
	}
	if outcomes[2].Err != nil {
		t.Fatalf("failure must not block later blobs: %v", outcomes[2].Err)
	}
	if uploader.requests[2].ContentType != "image/png" {
		t.Fatalf("unexpected content type %s", uploader.requests[2].ContentType)
	}
}

func TestForwardDisabledWithoutUploader(t *testing.T) {
	t.Parallel()
	svc := service.NewPhotoService(clock.SystemClock{}, &countingArchiver{}, nil, logging.Discard(), service.Options{})
	if svc.ForwardingEnabled() {
		t.Fatalf("forwarding should be disabled")
	}
	if outcomes := svc.Forward(context.Background(), "T1", []domain.Blob{{Filename: "a.jpg"}}); outcomes != nil {
		t.Fatalf("expected no outcomes, got %+v", outcomes)
	}
}

func TestExportNamesArchive(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 10, 15, 7, 30, 0, 0, time.UTC)
	archiver := &countingArchiver{}
	svc := service.NewPhotoService(clock.Fixed{At: at}, archiver, nil, logging.Discard(), service.Options{Timestamped: true})

	session := domain.Session{}.Submit("T1", []domain.Blob{{Filename: "a.jpg"}})
	archive, err := svc.Export(context.Background(), session, []string{"T1"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if archive.Filename != "field_photos_20261015_073000.zip" || archive.Entries != 1 {
		t.Fatalf("unexpected archive: %+v", archive)
	}

	empty, err := svc.Export(context.Background(), domain.Session{}, nil)
	if err != nil || empty.Entries != 0 {
		t.Fatalf("empty export must succeed with zero entries: %+v %v", empty, err)
	}
}

type namedUploader struct{ recordingUploader }

func (namedUploader) Describe(context.Context) (string, string, error) {
	return "folder-uploader", "1.0.0", nil
}

func TestDescribeUploader(t *testing.T) {
	t.Parallel()
	disabled := service.NewPhotoService(clock.SystemClock{}, &countingArchiver{}, nil, logging.Discard(), service.Options{})
	if _, err := disabled.DescribeUploader(context.Background()); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input without uploader, got %v", err)
	}

	svc := service.NewPhotoService(clock.SystemClock{}, &countingArchiver{}, &namedUploader{}, logging.Discard(), service.Options{})
	info, err := svc.DescribeUploader(context.Background())
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if info.Name != "folder-uploader" || info.Version != "1.0.0" {
		t.Fatalf("unexpected uploader info: %+v", info)
	}
}
