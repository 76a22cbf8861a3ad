package out

import (
	"context"
	"time"

	"fieldmap/internal/modules/photo/domain"
)

type Archiver interface {
	Write(entries []domain.Entry, modified time.Time) ([]byte, error)
}

type UploadRequest struct {
	Name        string
	Folder      string
	ContentType string
	Data        []byte
}

type UploadResult struct {
	Location string
}

// Uploader forwards one blob to remote object storage. It is called once per
// blob with no retry.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
}

// Describer is implemented by uploaders that can report what they are.
type Describer interface {
	Describe(ctx context.Context) (name, version string, err error)
}
