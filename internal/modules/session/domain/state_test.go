package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	photo "fieldmap/internal/modules/photo/domain"
	selection "fieldmap/internal/modules/selection/domain"
	"fieldmap/internal/modules/session/domain"
	ticket "fieldmap/internal/modules/ticket/domain"
)

func importedState(t *testing.T) domain.State {
	t.Helper()
	store, _, err := ticket.ImportTable([][]string{
		{"Ticket", "lat", "lon", "Notes"},
		{"T1", "40.0", "-74.0", "leak"},
		{"T2", "41.0", "-72.0", ""},
	})
	require.NoError(t, err)
	state, delta := domain.Apply(domain.State{ID: "s1", StartedAt: time.Now()}, domain.Imported{Store: store, Source: "route.csv"})
	require.True(t, delta.StoreChanged)
	return state
}

func TestSelectThenBlockClearsSelection(t *testing.T) {
	t.Parallel()
	state := importedState(t)
	state, delta := domain.Apply(state, domain.MarkerClicked{Label: "ID:T1"})
	require.True(t, delta.SelectionChanged)
	require.Equal(t, "T1", state.Selection.ID())

	blocked, _, err := state.Store.WithStatus("T1", ticket.StatusInaccessible)
	require.NoError(t, err)
	state, delta = domain.Apply(state, domain.StatusChanged{Store: blocked, TicketID: "T1"})
	assert.True(t, delta.StoreChanged)
	assert.True(t, delta.SelectionChanged)
	assert.False(t, state.Selection.Active())

	got, _ := state.Store.Find("T1")
	assert.Equal(t, ticket.StatusInaccessible, got.Status)
	assert.Equal(t, selection.StyleBlocked, domain.View(state, 0).Markers[0].Style)
}

func TestSelectionEventsAreNoOpsWhenUnchanged(t *testing.T) {
	t.Parallel()
	state := importedState(t)
	next, delta := domain.Apply(state, domain.MarkerClicked{Label: "garbage"})
	assert.False(t, delta.Changed())
	assert.Equal(t, state.Selection, next.Selection)

	next, delta = domain.Apply(state, domain.TicketSearched{Text: "2"})
	assert.True(t, delta.SelectionChanged)
	assert.Equal(t, "T2", next.Selection.ID())

	next, delta = domain.Apply(next, domain.TicketPicked{Choice: selection.NoSelectionSentinel})
	assert.True(t, delta.SelectionChanged)
	assert.False(t, next.Selection.Active())
}

func TestImportDropsSelectionAndPhotos(t *testing.T) {
	t.Parallel()
	state := importedState(t)
	state, _ = domain.Apply(state, domain.TicketPicked{Choice: "T1"})
	state, _ = domain.Apply(state, domain.PhotosSubmitted{TicketID: "T1", Blobs: []photo.Blob{{Filename: "a.jpg"}}})
	require.Equal(t, 1, state.Photos.Total())

	fresh, _ := ticket.NewStore([]ticket.Ticket{{ID: "X", Status: ticket.StatusPending}})
	next, delta := domain.Apply(state, domain.Imported{Store: fresh, Source: "other.xlsx"})
	assert.True(t, delta.SelectionChanged)
	assert.True(t, delta.PhotosChanged)
	assert.False(t, next.Selection.Active())
	assert.True(t, next.Photos.Empty())
	assert.Equal(t, "s1", next.ID)
	assert.Equal(t, 1, state.Photos.Total(), "prior state is untouched")
}

func TestPhotosForUnknownTicketAreIgnored(t *testing.T) {
	t.Parallel()
	state := importedState(t)
	next, delta := domain.Apply(state, domain.PhotosSubmitted{TicketID: "T9", Blobs: []photo.Blob{{Filename: "a.jpg"}}})
	assert.False(t, delta.Changed())
	assert.True(t, next.Photos.Empty())

	next, _ = domain.Apply(state, domain.PhotosSubmitted{TicketID: "T2", Blobs: []photo.Blob{{Filename: "a.jpg"}, {Filename: "b.jpg"}}})
	next, _ = domain.Apply(next, domain.PhotosForwarded{Keys: []photo.Key{{TicketID: "T2", Filename: "a.jpg"}}})
	assert.Len(t, next.Photos.Pending("T2"), 1)
}

func TestResetReturnsToEmptySession(t *testing.T) {
	t.Parallel()
	state := importedState(t)
	state, _ = domain.Apply(state, domain.TicketPicked{Choice: "T2"})
	state, _ = domain.Apply(state, domain.PhotosSubmitted{TicketID: "T2", Blobs: []photo.Blob{{Filename: "a.jpg"}}})

	cleared, delta := domain.Apply(state, domain.Reset{})
	assert.True(t, delta.Cleared)
	assert.False(t, cleared.Loaded())
	assert.False(t, cleared.Selection.Active())
	assert.True(t, cleared.Photos.Empty())
	assert.Empty(t, cleared.Source)

	vm := domain.View(cleared, 0)
	assert.Empty(t, vm.Markers)
	assert.Equal(t, []string{selection.NoSelectionSentinel}, vm.Choices)
	assert.Nil(t, vm.Active)
}

func TestRestoreDropsStaleSelection(t *testing.T) {
	t.Parallel()
	state := importedState(t)
	state, _ = domain.Apply(state, domain.TicketPicked{Choice: "T2"})
	only, _ := ticket.NewStore([]ticket.Ticket{{ID: "T1", Status: ticket.StatusCompleted}})
	next, delta := domain.Apply(state, domain.Restored{Store: only})
	assert.True(t, delta.SelectionChanged)
	assert.False(t, next.Selection.Active())
}

func TestViewModel(t *testing.T) {
	t.Parallel()
	state := importedState(t)
	state, _ = domain.Apply(state, domain.MarkerClicked{Label: "ID:T2"})
	state, _ = domain.Apply(state, domain.PhotosSubmitted{TicketID: "T2", Blobs: []photo.Blob{{Filename: "a.jpg"}, {Filename: "b.jpg"}}})

	vm := domain.View(state, 0)
	assert.True(t, vm.Loaded)
	assert.Equal(t, domain.DefaultZoom, vm.Viewport.Zoom)
	assert.Equal(t, 40.5, vm.Viewport.CenterLat)
	assert.Equal(t, -73.0, vm.Viewport.CenterLon)
	assert.Equal(t, domain.Bounds{MinLat: 40, MinLon: -74, MaxLat: 41, MaxLon: -72}, vm.Viewport.Bounds)
	assert.Equal(t, []string{selection.NoSelectionSentinel, "T1", "T2"}, vm.Choices)

	require.Len(t, vm.Markers, 2)
	assert.Equal(t, "ID:T1", vm.Markers[0].Label)
	assert.Equal(t, selection.StylePending, vm.Markers[0].Style)
	assert.Equal(t, selection.StyleActive, vm.Markers[1].Style)

	require.NotNil(t, vm.Active)
	assert.Equal(t, ticket.NotesPlaceholder, vm.Active.Ticket.Notes)
	assert.Equal(t, "google.navigation:q=41,-72", vm.Active.Navigation)
	assert.Equal(t, 2, vm.Active.Photos)
	assert.Equal(t, domain.Counts{Total: 2, Pending: 2, Photos: 2, PhotoTickets: 1}, vm.Counts)
	assert.Equal(t, 9, domain.View(state, 9).Viewport.Zoom)
}
