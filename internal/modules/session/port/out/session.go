package out

import (
	"context"

	"fieldmap/internal/modules/session/domain"
)

// SummaryStore writes the closing note of a session.
type SummaryStore interface {
	Save(ctx context.Context, summary domain.Summary) (string, error)
}

type ActiveSessionStore interface {
	SaveActive(ctx context.Context, session domain.ActiveSession) error
	LoadActive(ctx context.Context) (domain.ActiveSession, error)
	ClearActive(ctx context.Context) error
}

// Recorder receives counters for applied events and forwarded photos.
type Recorder interface {
	EventApplied(event string, changed bool)
	PhotoForwarded(ok bool)
}
