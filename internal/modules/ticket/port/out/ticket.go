package out

import (
	"context"
	"io"

	"fieldmap/internal/modules/ticket/domain"
)

// SnapshotStore mirrors the ticket store to a flat tabular file.
type SnapshotStore interface {
	Save(ctx context.Context, tickets []domain.Ticket) error
	// Load returns apperrors.ErrNoDataset when no snapshot exists.
	Load(ctx context.Context) ([]SnapshotRow, error)
	Delete(ctx context.Context) error
}

// SnapshotRow keeps the raw status text so unreadable values can be reported.
type SnapshotRow struct {
	Ticket    domain.Ticket
	RawStatus string
}

// TableReader turns an uploaded spreadsheet into rows of cells.
type TableReader interface {
	ReadRows(ctx context.Context, name string, r io.Reader) ([][]string, error)
}

type ActivityLog interface {
	Append(ctx context.Context, activity domain.Activity) error
	List(ctx context.Context, limit int) ([]domain.Activity, error)
	Reset(ctx context.Context) error
}

type ReportStore interface {
	Write(ctx context.Context, report domain.Report) (string, error)
}
