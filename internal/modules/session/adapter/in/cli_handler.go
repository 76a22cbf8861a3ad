package in

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sessiondto "fieldmap/internal/modules/session/dto"
	sessionin "fieldmap/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context) (sessiondto.StartOutput, error) {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) View(ctx context.Context) (sessiondto.View, error) {
	return h.usecase.View(ctx)
}

func (h CLIHandler) Import(ctx context.Context, path string) (sessiondto.ImportOutput, error) {
	f, err := os.Open(path)
	if err != nil {
		return sessiondto.ImportOutput{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return h.usecase.Import(ctx, sessiondto.ImportInput{Name: filepath.Base(path), Reader: f})
}

func (h CLIHandler) Select(ctx context.Context, id string) (sessiondto.Outcome, error) {
	return h.usecase.Pick(ctx, id)
}

func (h CLIHandler) Search(ctx context.Context, text string) (sessiondto.Outcome, error) {
	return h.usecase.Search(ctx, text)
}

func (h CLIHandler) Click(ctx context.Context, label string) (sessiondto.Outcome, error) {
	return h.usecase.ClickMarker(ctx, label)
}

func (h CLIHandler) SetStatus(ctx context.Context, id, status string) (sessiondto.TransitionOutput, error) {
	return h.usecase.Transition(ctx, sessiondto.TransitionInput{TicketID: id, Status: status})
}

// AttachPhotos reads the files and submits them as one batch for the ticket.
func (h CLIHandler) AttachPhotos(ctx context.Context, ticketID string, paths []string) (sessiondto.SubmitPhotosOutput, error) {
	photos := make([]sessiondto.Photo, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return sessiondto.SubmitPhotosOutput{}, fmt.Errorf("read photo %s: %w", p, err)
		}
		photos = append(photos, sessiondto.Photo{Filename: filepath.Base(p), Data: data})
	}
	return h.usecase.SubmitPhotos(ctx, sessiondto.SubmitPhotosInput{TicketID: ticketID, Photos: photos})
}

func (h CLIHandler) Export(ctx context.Context) (sessiondto.ExportOutput, error) {
	return h.usecase.ExportPhotos(ctx)
}

func (h CLIHandler) Report(ctx context.Context) (sessiondto.ReportOutput, error) {
	return h.usecase.Report(ctx)
}

func (h CLIHandler) Reset(ctx context.Context) (sessiondto.ResetOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h CLIHandler) GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error) {
	return h.usecase.GetActive(ctx)
}
