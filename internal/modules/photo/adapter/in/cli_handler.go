package in

import (
	"context"
	"fmt"
	"os"

	"fieldmap/internal/modules/photo/dto"
	photoin "fieldmap/internal/modules/photo/port/in"
)

type CLIHandler struct {
	usecase photoin.Usecase
}

func NewCLIHandler(usecase photoin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Uploader(ctx context.Context) (dto.UploaderInfo, error) {
	return h.usecase.Uploader(ctx)
}

func (h CLIHandler) Inspect(ctx context.Context, path string) (dto.InspectOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dto.InspectOutput{}, fmt.Errorf("read photo: %w", err)
	}
	return h.usecase.Inspect(ctx, dto.Blob{Filename: path, Data: data})
}
