package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fieldmap/internal/modules/ticket/domain"
)

func TestImportTableDropsNonNumericCoordinates(t *testing.T) {
	t.Parallel()
	rows := [][]string{
		{"Ticket", "lat", "lon", "Notes"},
		{"T1", "40.0", "-74.0", "leak"},
		{"T2", "bad", "-73.9", ""},
	}
	store, summary, err := domain.ImportTable(rows)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one ticket, got %d", store.Len())
	}
	t1, ok := store.Find("T1")
	if !ok {
		t.Fatalf("T1 should be imported")
	}
	if t1.Status != domain.StatusPending || t1.Notes != "leak" || t1.Lat != 40 || t1.Lon != -74 {
		t.Fatalf("unexpected ticket: %+v", t1)
	}
	if _, ok := store.Find("T2"); ok {
		t.Fatalf("T2 must be dropped")
	}
	if summary.Rows != 2 || summary.DroppedCoordinates != 1 || summary.Imported != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestImportTableNotesPlaceholder(t *testing.T) {
	t.Parallel()
	threeColumns := [][]string{{"id", "a", "b"}, {"A", "1", "2", "ignored without a notes header"}}
	store, _, err := domain.ImportTable(threeColumns)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got, _ := store.Find("A"); got.Notes != domain.NotesPlaceholder {
		t.Fatalf("expected placeholder without notes column, got %q", got.Notes)
	}

	blankNotes := [][]string{{"id", "a", "b", "n"}, {"B", "1", "2", "   "}, {"C", "1", "2"}}
	store, _, err = domain.ImportTable(blankNotes)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, id := range []string{"B", "C"} {
		if got, _ := store.Find(id); got.Notes != domain.NotesPlaceholder {
			t.Fatalf("expected placeholder for %s, got %q", id, got.Notes)
		}
	}
}

func TestImportTableRejectsNarrowOrEmptyTables(t *testing.T) {
	t.Parallel()
	if _, _, err := domain.ImportTable(nil); !errors.Is(err, domain.ErrTooFewColumns) {
		t.Fatalf("expected too few columns for empty table, got %v", err)
	}
	if _, _, err := domain.ImportTable([][]string{{"id", "lat"}, {"A", "1"}}); !errors.Is(err, domain.ErrTooFewColumns) {
		t.Fatalf("expected too few columns, got %v", err)
	}
	rows := [][]string{{"id", "lat", "lon"}, {"A", "x", "1"}, {"B", "NaN", "1"}, {"C", "1", "+Inf"}}
	if _, _, err := domain.ImportTable(rows); !errors.Is(err, domain.ErrNoValidRows) {
		t.Fatalf("expected no valid rows, got %v", err)
	}
}

func TestImportTableKeepsFirstDuplicateAndSkipsBlankIDs(t *testing.T) {
	t.Parallel()
	rows := [][]string{
		{"id", "lat", "lon", "notes"},
		{"A", "1", "2", "first"},
		{"", "1", "2", "no id"},
		{"A", "3", "4", "second"},
		{" 007 ", "5", "6", "padded"},
	}
	store, summary, err := domain.ImportTable(rows)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	a, _ := store.Find("A")
	if a.Notes != "first" {
		t.Fatalf("first occurrence must win, got %q", a.Notes)
	}
	if _, ok := store.Find("007"); !ok {
		t.Fatalf("ids are kept as trimmed strings without numeric coercion")
	}
	if summary.DroppedDuplicates != 1 || summary.DroppedBlankID != 1 || summary.Imported != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestWithStatusIsIdempotentAndLeavesReceiver(t *testing.T) {
	t.Parallel()
	store, _ := domain.NewStore([]domain.Ticket{{ID: "T1", Status: domain.StatusPending}, {ID: "T2", Status: domain.StatusPending}})
	once, tr, err := store.WithStatus("T1", domain.StatusCompleted)
	if err != nil {
		t.Fatalf("with status: %v", err)
	}
	if !tr.Changed() || tr.From != domain.StatusPending {
		t.Fatalf("unexpected transition: %+v", tr)
	}
	twice, tr2, err := once.WithStatus("T1", domain.StatusCompleted)
	if err != nil {
		t.Fatalf("with status again: %v", err)
	}
	if tr2.Changed() {
		t.Fatalf("second completion should not change anything")
	}
	if got, _ := twice.Find("T1"); got.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got, _ := store.Find("T1"); got.Status != domain.StatusPending {
		t.Fatalf("receiver must stay untouched, got %s", got.Status)
	}
	if _, _, err := store.WithStatus("missing", domain.StatusCompleted); err == nil {
		t.Fatalf("missing ticket should fail")
	}
	if _, _, err := store.WithStatus("T1", domain.Status("Archived")); err == nil {
		t.Fatalf("unknown status should fail")
	}
}

func TestSearchSubstringFirstMatchInStoreOrder(t *testing.T) {
	t.Parallel()
	store, _ := domain.NewStore([]domain.Ticket{{ID: "ZX-100"}, {ID: "AB-100"}, {ID: "ab-200"}})
	got, ok := store.SearchSubstring("100")
	if !ok || got.ID != "ZX-100" {
		t.Fatalf("expected ZX-100, got %+v %v", got, ok)
	}
	got, ok = store.SearchSubstring("ab")
	if !ok || got.ID != "ab-200" {
		t.Fatalf("search must be case sensitive, got %+v", got)
	}
	if _, ok := store.SearchSubstring("nope"); ok {
		t.Fatalf("no match expected")
	}
	if _, ok := store.SearchSubstring(""); ok {
		t.Fatalf("empty search must not match")
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]domain.Status{
		"pending":      domain.StatusPending,
		" Completed ":  domain.StatusCompleted,
		"INACCESSIBLE": domain.StatusInaccessible,
		"blocked":      domain.StatusInaccessible,
	} {
		got, err := domain.ParseStatus(raw)
		if err != nil || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := domain.ParseStatus("later"); err == nil {
		t.Fatalf("unknown status should fail")
	}
}

func TestBoundsCenterAndReport(t *testing.T) {
	t.Parallel()
	store, _ := domain.NewStore([]domain.Ticket{
		{ID: "A", Lat: 40, Lon: -74, Notes: "pipe | valve", Status: domain.StatusCompleted},
		{ID: "B", Lat: 42, Lon: -70, Notes: "gate", Status: domain.StatusPending},
	})
	minLat, minLon, maxLat, maxLon, ok := store.Bounds()
	if !ok || minLat != 40 || maxLat != 42 || minLon != -74 || maxLon != -70 {
		t.Fatalf("unexpected bounds %v %v %v %v", minLat, minLon, maxLat, maxLon)
	}
	lat, lon, _ := store.Center()
	if lat != 41 || lon != -72 {
		t.Fatalf("unexpected center %v %v", lat, lon)
	}

	report := domain.BuildReport(store, "route.csv", time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC))
	if report.Meta["completed"] != 1 || report.Meta["pending"] != 1 || report.Meta["tickets"] != 2 {
		t.Fatalf("unexpected report meta: %+v", report.Meta)
	}
	if !strings.Contains(report.Table, `pipe \| valve`) {
		t.Fatalf("pipes in notes must be escaped: %s", report.Table)
	}
}
