package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fieldmap/internal/modules/session/domain"
	sessionout "fieldmap/internal/modules/session/port/out"
	"fieldmap/internal/platform/markdown"
	"fieldmap/internal/platform/slug"
)

// MarkdownSummaryStore files session notes under sessions/YYYY/MM/DD.
type MarkdownSummaryStore struct {
	workspace string
}

func NewMarkdownSummaryStore(workspace string) sessionout.SummaryStore {
	return &MarkdownSummaryStore{workspace: workspace}
}

func (s *MarkdownSummaryStore) Save(_ context.Context, summary domain.Summary) (string, error) {
	date := summary.EndedAt
	dir := filepath.Join(s.workspace, "sessions", date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	source := summary.Source
	if source == "" {
		source = "untitled"
	}
	name := fmt.Sprintf("%s-%s.md", date.Format("150405"), slug.Make(source))
	path := filepath.Join(dir, name)

	duration := int(summary.EndedAt.Sub(summary.StartedAt).Minutes())
	if duration < 0 {
		duration = 0
	}
	doc := markdown.Document{
		Meta: map[string]any{
			"schema_version":   domain.SchemaVersion,
			"id":               summary.SessionID,
			"source":           summary.Source,
			"started_at":       summary.StartedAt.Format(time.RFC3339),
			"ended_at":         summary.EndedAt.Format(time.RFC3339),
			"duration_minutes": duration,
			"tickets":          summary.Total,
			"pending":          summary.Pending,
			"completed":        summary.Completed,
			"inaccessible":     summary.Inaccessible,
			"photos":           summary.Photos,
		},
		Body: fmt.Sprintf("# Session %s\n\n- Source: %s\n- Duration: %d minutes\n- Completed: %d of %d\n- Inaccessible: %d\n- Photos captured: %d\n",
			summary.SessionID, source, duration, summary.Completed, summary.Total, summary.Inaccessible, summary.Photos),
	}
	rendered, err := doc.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session note: %w", err)
	}
	return path, nil
}
