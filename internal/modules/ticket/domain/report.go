package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Report is the generated part of the field report: frontmatter values and
// the ticket table placed inside the managed block.
type Report struct {
	Meta  map[string]any
	Table string
}

func BuildReport(store Store, source string, at time.Time) Report {
	counts := store.Counts()
	meta := map[string]any{
		"schema_version": SchemaVersion,
		"source":         source,
		"generated_at":   at.Format(time.RFC3339),
		"tickets":        store.Len(),
		"pending":        counts[StatusPending],
		"completed":      counts[StatusCompleted],
		"inaccessible":   counts[StatusInaccessible],
	}

	var sb strings.Builder
	sb.WriteString("| Ticket | Status | Location | Notes |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, t := range store.tickets {
		fmt.Fprintf(&sb, "| %s | %s | %s, %s | %s |\n",
			escapeCell(t.ID),
			t.Status,
			strconv.FormatFloat(t.Lat, 'f', -1, 64),
			strconv.FormatFloat(t.Lon, 'f', -1, 64),
			escapeCell(t.Notes),
		)
	}
	return Report{Meta: meta, Table: strings.TrimSuffix(sb.String(), "\n")}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
