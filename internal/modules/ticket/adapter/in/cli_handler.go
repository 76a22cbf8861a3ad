package in

import (
	"context"

	"fieldmap/internal/modules/ticket/dto"
	ticketin "fieldmap/internal/modules/ticket/port/in"
)

// CLIHandler exposes the ticket operations that do not need the live session.
type CLIHandler struct {
	usecase ticketin.Usecase
}

func NewCLIHandler(usecase ticketin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Activity(ctx context.Context, limit int) ([]dto.ActivityOutput, error) {
	return h.usecase.Activity(ctx, limit)
}

func (h CLIHandler) Snapshot(ctx context.Context) (dto.RestoreOutput, error) {
	return h.usecase.Restore(ctx)
}
