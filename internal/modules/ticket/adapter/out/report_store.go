package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"fieldmap/internal/modules/ticket/domain"
	ticketout "fieldmap/internal/modules/ticket/port/out"
	"fieldmap/internal/platform/markdown"
)

const defaultReportBody = "# Field report\n\n## Crew notes\n\n"

// FileReportStore regenerates the ticket table and frontmatter of the report
// file; text written outside the managed block survives.
type FileReportStore struct {
	path string
}

func NewFileReportStore(workspace string) ticketout.ReportStore {
	return &FileReportStore{path: filepath.Join(workspace, "field-report.md")}
}

func (s *FileReportStore) Write(_ context.Context, report domain.Report) (string, error) {
	doc := markdown.Document{Meta: map[string]any{}, Body: defaultReportBody}
	existing, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		parsed, parseErr := markdown.Parse(string(existing))
		if parseErr != nil {
			return "", fmt.Errorf("parse existing report: %w", parseErr)
		}
		doc = parsed
		if strings.TrimSpace(doc.Body) == "" {
			doc.Body = defaultReportBody
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read report: %w", err)
	}

	for k, v := range report.Meta {
		doc.Meta[k] = v
	}
	block := markdown.Block{Start: domain.ManagedStart, End: domain.ManagedEnd}
	doc.Body = block.Replace(doc.Body, report.Table)

	rendered, err := doc.Render()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, strings.NewReader(rendered)); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return s.path, nil
}
