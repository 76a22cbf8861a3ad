package in

import (
	"context"

	"fieldmap/internal/modules/ticket/dto"
)

type Usecase interface {
	Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error)
	Restore(ctx context.Context) (dto.RestoreOutput, error)
	Transition(ctx context.Context, input dto.TransitionInput) (dto.TransitionOutput, error)
	Reset(ctx context.Context) error
	Activity(ctx context.Context, limit int) ([]dto.ActivityOutput, error)
	Report(ctx context.Context, input dto.ReportInput) (dto.ReportOutput, error)
}
