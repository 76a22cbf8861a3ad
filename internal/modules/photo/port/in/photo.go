package in

import (
	"context"

	"fieldmap/internal/modules/photo/dto"
)

type Usecase interface {
	ForwardingEnabled() bool
	Forward(ctx context.Context, input dto.ForwardInput) (dto.ForwardOutput, error)
	Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
	Inspect(ctx context.Context, blob dto.Blob) (dto.InspectOutput, error)
	Uploader(ctx context.Context) (dto.UploaderInfo, error)
}
