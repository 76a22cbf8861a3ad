package usecase

import (
	"context"
	"path/filepath"

	"fieldmap/internal/modules/photo/domain"
	"fieldmap/internal/modules/photo/dto"
	photoin "fieldmap/internal/modules/photo/port/in"
	"fieldmap/internal/modules/photo/service"
)

type Interactor struct {
	svc *service.PhotoService
}

func NewInteractor(svc *service.PhotoService) photoin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) ForwardingEnabled() bool {
	return i.svc.ForwardingEnabled()
}

func (i *Interactor) Forward(ctx context.Context, input dto.ForwardInput) (dto.ForwardOutput, error) {
	outcomes := i.svc.Forward(ctx, input.TicketID, toBlobs(input.Blobs))
	out := dto.ForwardOutput{Outcomes: make([]dto.ForwardOutcome, 0, len(outcomes))}
	for _, o := range outcomes {
		item := dto.ForwardOutcome{TicketID: o.Key.TicketID, Filename: o.Key.Filename, Name: o.Name, Location: o.Location}
		if o.Err != nil {
			item.Error = o.Err.Error()
		}
		out.Outcomes = append(out.Outcomes, item)
	}
	return out, nil
}

func (i *Interactor) Export(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	var session domain.Session
	for _, batch := range input.Batches {
		session = session.Submit(batch.TicketID, toBlobs(batch.Blobs))
	}
	archive, err := i.svc.Export(ctx, session, input.Order)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{
		Filename:    archive.Filename,
		ContentType: domain.ArchiveMIME,
		Data:        archive.Data,
		Entries:     archive.Entries,
	}, nil
}

func (i *Interactor) Inspect(_ context.Context, blob dto.Blob) (dto.InspectOutput, error) {
	b := domain.Blob{Filename: blob.Filename, Data: blob.Data}
	out := dto.InspectOutput{
		Filename:  filepath.Base(blob.Filename),
		Extension: domain.Extension(b),
		Bytes:     len(blob.Data),
	}
	if info, ok := domain.Inspect(b); ok {
		out.Format, out.Width, out.Height, out.Decodable = info.Format, info.Width, info.Height, true
	}
	return out, nil
}

func (i *Interactor) Uploader(ctx context.Context) (dto.UploaderInfo, error) {
	info, err := i.svc.DescribeUploader(ctx)
	if err != nil {
		return dto.UploaderInfo{}, err
	}
	return dto.UploaderInfo{Name: info.Name, Version: info.Version}, nil
}

func toBlobs(in []dto.Blob) []domain.Blob {
	out := make([]domain.Blob, 0, len(in))
	for _, b := range in {
		out = append(out, domain.Blob{Filename: b.Filename, Data: b.Data})
	}
	return out
}
