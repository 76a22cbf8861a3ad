package out

import (
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"fieldmap/internal/modules/photo/domain"
	photoout "fieldmap/internal/modules/photo/port/out"
)

type ZipArchiver struct{}

func NewZipArchiver() photoout.Archiver {
	return ZipArchiver{}
}

func (ZipArchiver) Write(entries []domain.Entry, modified time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("create entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("write entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
