package domain

import (
	"sort"
)

// Blob is one captured photo as submitted by the client.
type Blob struct {
	Filename string
	Data     []byte
}

// Key identifies a blob for forwarding. The same filename submitted again for
// the same ticket is not forwarded twice in one session.
type Key struct {
	TicketID string
	Filename string
}

// Session holds the latest batch per ticket. It lives only in memory and is
// never restored. Methods return modified copies.
type Session struct {
	batches   map[string][]Blob
	forwarded map[Key]struct{}
}

// Submit replaces the ticket's batch. An empty batch removes the entry.
func (s Session) Submit(ticketID string, blobs []Blob) Session {
	next := s.clone()
	if len(blobs) == 0 {
		delete(next.batches, ticketID)
		return next
	}
	batch := make([]Blob, len(blobs))
	copy(batch, blobs)
	next.batches[ticketID] = batch
	return next
}

func (s Session) Batch(ticketID string) []Blob {
	batch := s.batches[ticketID]
	out := make([]Blob, len(batch))
	copy(out, batch)
	return out
}

func (s Session) Count(ticketID string) int { return len(s.batches[ticketID]) }

func (s Session) Total() int {
	total := 0
	for _, batch := range s.batches {
		total += len(batch)
	}
	return total
}

func (s Session) Empty() bool { return len(s.batches) == 0 }

// TicketIDs lists tickets holding a batch, sorted by id.
func (s Session) TicketIDs() []string {
	ids := make([]string, 0, len(s.batches))
	for id := range s.batches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Pending returns the blobs of the ticket's batch not yet forwarded. A key
// repeated within the batch is pending once, for its first blob.
func (s Session) Pending(ticketID string) []Blob {
	pending, _ := s.split(ticketID)
	return pending
}

// Shadowed returns the blobs that repeat an earlier key of the same batch.
// They are stored and exported but never forwarded.
func (s Session) Shadowed(ticketID string) []Blob {
	_, shadowed := s.split(ticketID)
	return shadowed
}

func (s Session) split(ticketID string) (pending, shadowed []Blob) {
	seen := make(map[Key]bool)
	for _, b := range s.batches[ticketID] {
		k := Key{TicketID: ticketID, Filename: b.Filename}
		if seen[k] {
			shadowed = append(shadowed, b)
			continue
		}
		seen[k] = true
		if !s.Forwarded(k) {
			pending = append(pending, b)
		}
	}
	return pending, shadowed
}

func (s Session) Forwarded(k Key) bool {
	_, ok := s.forwarded[k]
	return ok
}

func (s Session) MarkForwarded(keys ...Key) Session {
	if len(keys) == 0 {
		return s
	}
	next := s.clone()
	for _, k := range keys {
		next.forwarded[k] = struct{}{}
	}
	return next
}

func (s Session) clone() Session {
	next := Session{
		batches:   make(map[string][]Blob, len(s.batches)),
		forwarded: make(map[Key]struct{}, len(s.forwarded)),
	}
	for id, batch := range s.batches {
		next.batches[id] = batch
	}
	for k := range s.forwarded {
		next.forwarded[k] = struct{}{}
	}
	return next
}
