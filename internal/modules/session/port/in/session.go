package in

import (
	"context"

	"fieldmap/internal/modules/session/dto"
)

// Usecase owns the live session. Calls are serialized: each one applies its
// event to completion before the next is accepted.
type Usecase interface {
	Start(ctx context.Context) (dto.StartOutput, error)
	View(ctx context.Context) (dto.View, error)
	Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error)
	ClickMarker(ctx context.Context, label string) (dto.Outcome, error)
	Pick(ctx context.Context, choice string) (dto.Outcome, error)
	Search(ctx context.Context, text string) (dto.Outcome, error)
	Transition(ctx context.Context, input dto.TransitionInput) (dto.TransitionOutput, error)
	SubmitPhotos(ctx context.Context, input dto.SubmitPhotosInput) (dto.SubmitPhotosOutput, error)
	ExportPhotos(ctx context.Context) (dto.ExportOutput, error)
	Report(ctx context.Context) (dto.ReportOutput, error)
	Reset(ctx context.Context) (dto.ResetOutput, error)
	GetActive(ctx context.Context) (dto.ActiveSessionOutput, error)
}
