package out

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	photoout "fieldmap/internal/modules/photo/port/out"
)

// FolderUploader stores blobs under root/<folder>/<name>. It backs the
// reference uploader plugin and stands in for a cloud drive.
type FolderUploader struct {
	root string
}

func NewFolderUploader(root string) *FolderUploader {
	return &FolderUploader{root: root}
}

func (u *FolderUploader) Upload(ctx context.Context, req photoout.UploadRequest) (photoout.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return photoout.UploadResult{}, err
	}
	name := filepath.Base(strings.TrimSpace(req.Name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return photoout.UploadResult{}, fmt.Errorf("invalid object name %q", req.Name)
	}
	folder := filepath.Clean(filepath.Join(u.root, filepath.Clean("/"+req.Folder)))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return photoout.UploadResult{}, fmt.Errorf("create folder: %w", err)
	}
	target := filepath.Join(folder, name)
	if err := atomic.WriteFile(target, bytes.NewReader(req.Data)); err != nil {
		_ = os.Remove(target)
		return photoout.UploadResult{}, fmt.Errorf("store %s: %w", name, err)
	}
	return photoout.UploadResult{Location: target}, nil
}

var _ photoout.Uploader = (*FolderUploader)(nil)
