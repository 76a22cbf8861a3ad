package domain

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

const (
	ArchiveMIME     = "application/zip"
	archiveBase     = "field_photos"
	defaultExt      = ".jpg"
	archiveStampFmt = "20060102_150405"
)

// Entry is one file of the export archive.
type Entry struct {
	Name string
	Data []byte
}

// EntryName keeps every entry at the archive root: path separators in the
// ticket id are flattened to underscores.
func EntryName(ticketID string, index int, ext string) string {
	return fmt.Sprintf("Ticket_%s_Photo_%d%s", flatID(ticketID), index, ext)
}

// RemoteName is the object name used when forwarding a blob.
func RemoteName(ticketID, filename string) string {
	return fmt.Sprintf("Ticket_%s_%s", flatID(ticketID), filepath.Base(filename))
}

var idSeparators = strings.NewReplacer("/", "_", `\`, "_")

func flatID(id string) string { return idSeparators.Replace(id) }

// ArchiveName is field_photos.zip, or carries a second-resolution stamp.
func ArchiveName(at time.Time, timestamped bool) string {
	if !timestamped {
		return archiveBase + ".zip"
	}
	return archiveBase + "_" + at.Format(archiveStampFmt) + ".zip"
}

// Entries flattens the session into archive entries. Tickets follow order
// (store order); tickets missing from order come after it, sorted by id.
func Entries(s Session, order []string) []Entry {
	seen := make(map[string]bool, len(order))
	ids := make([]string, 0, len(s.batches))
	for _, id := range order {
		if _, ok := s.batches[id]; ok && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range s.batches {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	ids = append(ids, rest...)

	entries := make([]Entry, 0, s.Total())
	for _, id := range ids {
		for i, b := range s.batches[id] {
			entries = append(entries, Entry{Name: EntryName(id, i, Extension(b)), Data: b.Data})
		}
	}
	return entries
}

// Extension keeps the original extension lowercased; without one the format
// is sniffed from the bytes, falling back to .jpg.
func Extension(b Blob) string {
	if ext := strings.ToLower(filepath.Ext(b.Filename)); ext != "" && ext != "." {
		return ext
	}
	if info, ok := Inspect(b); ok {
		switch info.Format {
		case "jpeg":
			return ".jpg"
		default:
			return "." + info.Format
		}
	}
	return defaultExt
}

func ContentType(b Blob) string {
	if ct := mime.TypeByExtension(Extension(b)); ct != "" {
		return ct
	}
	return http.DetectContentType(b.Data)
}

type Info struct {
	Format string
	Width  int
	Height int
}

// Inspect decodes only the image header.
func Inspect(b Blob) (Info, bool) {
	if len(b.Data) == 0 {
		return Info{}, false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b.Data))
	if err != nil {
		return Info{}, false
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, true
}
