package out

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"

	"fieldmap/internal/modules/ticket/domain"
	ticketout "fieldmap/internal/modules/ticket/port/out"
	apperrors "fieldmap/internal/platform/errors"
)

var snapshotHeader = []string{"Ticket", "lat", "lon", "Notes", "status"}

// CSVSnapshotStore rewrites the whole snapshot on every save; the rename is
// atomic so a crash leaves either the old or the new file.
type CSVSnapshotStore struct {
	path string
}

func NewCSVSnapshotStore(path string) ticketout.SnapshotStore {
	return &CSVSnapshotStore{path: path}
}

func (s *CSVSnapshotStore) Save(_ context.Context, tickets []domain.Ticket) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(snapshotHeader); err != nil {
		return fmt.Errorf("encode snapshot header: %w", err)
	}
	for _, t := range tickets {
		record := []string{
			t.ID,
			strconv.FormatFloat(t.Lat, 'f', -1, 64),
			strconv.FormatFloat(t.Lon, 'f', -1, 64),
			t.Notes,
			string(t.Status),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("encode snapshot row %s: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := atomic.WriteFile(s.path, buf); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *CSVSnapshotStore) Load(_ context.Context) ([]ticketout.SnapshotRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.ErrNoDataset
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.ErrNoDataset
		}
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if len(header) < len(snapshotHeader) {
		return nil, fmt.Errorf("snapshot header has %d columns, want %d", len(header), len(snapshotHeader))
	}

	var rows []ticketout.SnapshotRow
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot line %d: %w", line, err)
		}
		if len(record) < len(snapshotHeader) {
			return nil, fmt.Errorf("snapshot line %d has %d columns", line, len(record))
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("snapshot line %d latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("snapshot line %d longitude: %w", line, err)
		}
		rows = append(rows, ticketout.SnapshotRow{
			Ticket:    domain.Ticket{ID: record[0], Lat: lat, Lon: lon, Notes: record[3]},
			RawStatus: record[4],
		})
	}
	return rows, nil
}

func (s *CSVSnapshotStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
