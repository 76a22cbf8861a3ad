package out_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	ticketadapter "fieldmap/internal/modules/ticket/adapter/out"
	"fieldmap/internal/modules/ticket/domain"
	apperrors "fieldmap/internal/platform/errors"
)

func TestCSVSnapshotStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "field_log.csv")
	store := ticketadapter.NewCSVSnapshotStore(path)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrNoDataset)

	tickets := []domain.Ticket{
		{ID: "T1", Lat: 40.7128, Lon: -74.006, Notes: "leak, north side", Status: domain.StatusCompleted},
		{ID: "T2", Lat: 41, Lon: -73.5, Notes: domain.NotesPlaceholder, Status: domain.StatusPending},
	}
	require.NoError(t, store.Save(ctx, tickets))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "Ticket,lat,lon,Notes,status\n"))

	rows, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "T1", rows[0].Ticket.ID)
	assert.Equal(t, 40.7128, rows[0].Ticket.Lat)
	assert.Equal(t, "leak, north side", rows[0].Ticket.Notes)
	assert.Equal(t, "Completed", rows[0].RawStatus)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSpreadsheetReaderDelimitedText(t *testing.T) {
	t.Parallel()
	reader := ticketadapter.NewSpreadsheetReader()
	ctx := context.Background()

	rows, err := reader.ReadRows(ctx, "route.csv", strings.NewReader("\xef\xbb\xbfTicket,lat,lon,Notes\nT1, 40.0,-74.0,\"gate, code 12\"\nT2,bad,1\n"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ticket", rows[0][0])
	assert.Equal(t, "gate, code 12", rows[1][3])
	assert.Len(t, rows[2], 3)

	rows, err = reader.ReadRows(ctx, "route.TSV", strings.NewReader("id\tlat\tlon\nA\t1\t2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "1", "2"}, rows[1])

	_, err = reader.ReadRows(ctx, "empty.csv", strings.NewReader("  \n"))
	assert.Error(t, err)
}

func TestSpreadsheetReaderWorkbook(t *testing.T) {
	t.Parallel()
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"Ticket", "lat", "lon", "Notes"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"T1", 40.5, -74.25, "hydrant"}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ticketadapter.NewSpreadsheetReader().ReadRows(context.Background(), "route.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"T1", "40.5", "-74.25", "hydrant"}, rows[1])

	_, err = ticketadapter.NewSpreadsheetReader().ReadRows(context.Background(), "broken.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}

func TestSQLiteActivityLog(t *testing.T) {
	t.Parallel()
	log, err := ticketadapter.NewSQLiteActivityLog(filepath.Join(t.TempDir(), ".fieldmap", "fieldmap.db"))
	require.NoError(t, err)
	ctx := context.Background()
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	require.NoError(t, log.Append(ctx, domain.Activity{Kind: domain.ActivityImport, Detail: "route.csv: 2 tickets", At: at}))
	require.NoError(t, log.Append(ctx, domain.Activity{
		Kind: domain.ActivityTransition, TicketID: "T1", From: domain.StatusPending, To: domain.StatusInaccessible, At: at.Add(time.Minute),
	}))

	entries, err := log.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActivityTransition, entries[0].Kind)
	assert.Equal(t, domain.StatusInaccessible, entries[0].To)
	assert.True(t, entries[0].At.Equal(at.Add(time.Minute)))

	limited, err := log.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, log.Reset(ctx))
	entries, err = log.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileReportStoreKeepsHandWrittenText(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()
	reports := ticketadapter.NewFileReportStore(workspace)
	store, _ := domain.NewStore([]domain.Ticket{{ID: "T1", Lat: 1, Lon: 2, Notes: "n", Status: domain.StatusPending}})
	ctx := context.Background()

	path, err := reports.Write(ctx, domain.BuildReport(store, "route.csv", time.Now()))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(raw), "## Crew notes\n", "## Crew notes\n\nGate on T1 needs a key.\n", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	next, _, err := store.WithStatus("T1", domain.StatusCompleted)
	require.NoError(t, err)
	_, err = reports.Write(ctx, domain.BuildReport(next, "route.csv", time.Now()))
	require.NoError(t, err)

	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "Gate on T1 needs a key.")
	assert.Contains(t, content, "| T1 | Completed |")
	assert.Contains(t, content, "completed: 1")
	assert.Equal(t, 1, strings.Count(content, domain.ManagedStart))
}
