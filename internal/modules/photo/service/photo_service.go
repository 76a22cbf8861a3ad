package service

import (
	"context"
	"fmt"
	"log/slog"

	"fieldmap/internal/modules/photo/domain"
	photoout "fieldmap/internal/modules/photo/port/out"
	"fieldmap/internal/platform/clock"
	apperrors "fieldmap/internal/platform/errors"
)

type Options struct {
	Folder      string
	Timestamped bool
}

type PhotoService struct {
	clock    clock.Clock
	archiver photoout.Archiver
	uploader photoout.Uploader
	logger   *slog.Logger
	opts     Options
}

// NewPhotoService takes a nil uploader when forwarding is disabled.
func NewPhotoService(clock clock.Clock, archiver photoout.Archiver, uploader photoout.Uploader, logger *slog.Logger, opts Options) *PhotoService {
	return &PhotoService{clock: clock, archiver: archiver, uploader: uploader, logger: logger, opts: opts}
}

func (s *PhotoService) ForwardingEnabled() bool { return s.uploader != nil }

type Outcome struct {
	Key      domain.Key
	Name     string
	Location string
	Err      error
}

// Forward sends every blob once, in order. A failed blob does not stop the
// rest of the batch.
func (s *PhotoService) Forward(ctx context.Context, ticketID string, blobs []domain.Blob) []Outcome {
	if s.uploader == nil || len(blobs) == 0 {
		return nil
	}
	outcomes := make([]Outcome, 0, len(blobs))
	for _, b := range blobs {
		outcome := Outcome{Key: domain.Key{TicketID: ticketID, Filename: b.Filename}, Name: domain.RemoteName(ticketID, b.Filename)}
		result, err := s.uploader.Upload(ctx, photoout.UploadRequest{
			Name:        outcome.Name,
			Folder:      s.opts.Folder,
			ContentType: domain.ContentType(b),
			Data:        b.Data,
		})
		if err != nil {
			outcome.Err = fmt.Errorf("%w: %s: %v", apperrors.ErrRemoteUpload, b.Filename, err)
			s.logger.Warn("photo forward failed", "ticket_id", ticketID, "filename", b.Filename, "error", err)
		} else {
			outcome.Location = result.Location
			s.logger.Info("photo forwarded", "ticket_id", ticketID, "filename", b.Filename, "location", result.Location)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

type UploaderInfo struct {
	Name    string
	Version string
}

// DescribeUploader asks the configured uploader to identify itself, which
// also proves that it can be started.
func (s *PhotoService) DescribeUploader(ctx context.Context) (UploaderInfo, error) {
	if s.uploader == nil {
		return UploaderInfo{}, fmt.Errorf("%w: photo forwarding is disabled", apperrors.ErrInvalidInput)
	}
	d, ok := s.uploader.(photoout.Describer)
	if !ok {
		return UploaderInfo{Name: fmt.Sprintf("%T", s.uploader)}, nil
	}
	name, version, err := d.Describe(ctx)
	if err != nil {
		return UploaderInfo{}, fmt.Errorf("%w: describe uploader: %v", apperrors.ErrRemoteUpload, err)
	}
	return UploaderInfo{Name: name, Version: version}, nil
}

type Archive struct {
	Filename string
	Data     []byte
	Entries  int
}

// Export never fails on an empty session; it yields a zero-entry archive.
func (s *PhotoService) Export(_ context.Context, session domain.Session, order []string) (Archive, error) {
	now := s.clock.Now()
	entries := domain.Entries(session, order)
	data, err := s.archiver.Write(entries, now)
	if err != nil {
		return Archive{}, fmt.Errorf("write archive: %w", err)
	}
	s.logger.Info("photos exported", "entries", len(entries), "bytes", len(data))
	return Archive{Filename: domain.ArchiveName(now, s.opts.Timestamped), Data: data, Entries: len(entries)}, nil
}
