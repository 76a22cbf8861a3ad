package mapgrid

import (
	"math"

	sessiondto "fieldmap/internal/modules/session/dto"
)

// minSpan keeps a single marker, or a row of markers on one parallel, from
// collapsing the projection to a point.
const minSpan = 0.005

type Cell struct {
	X, Y   int
	Marker sessiondto.Marker
}

// Project places markers on a w×h grid spanning the viewport bounds, north
// up. When two markers share a cell the active one wins, otherwise the first
// in store order.
func Project(markers []sessiondto.Marker, vp sessiondto.Viewport, w, h int) []Cell {
	if w <= 0 || h <= 0 || len(markers) == 0 {
		return nil
	}
	minLat, maxLat := widen(vp.MinLat, vp.MaxLat)
	minLon, maxLon := widen(vp.MinLon, vp.MaxLon)

	taken := map[[2]int]int{}
	cells := make([]Cell, 0, len(markers))
	for _, mk := range markers {
		x := scale(mk.Lon, minLon, maxLon, w)
		y := (h - 1) - scale(mk.Lat, minLat, maxLat, h)
		key := [2]int{x, y}
		if idx, ok := taken[key]; ok {
			if mk.Style == "active" {
				cells[idx].Marker = mk
			}
			continue
		}
		taken[key] = len(cells)
		cells = append(cells, Cell{X: x, Y: y, Marker: mk})
	}
	return cells
}

// Hit finds the marker at or next to (x, y). An exact hit beats a neighbour.
func Hit(cells []Cell, x, y int) (sessiondto.Marker, bool) {
	best, bestDist := -1, 2
	for i, c := range cells {
		d := max(abs(c.X-x), abs(c.Y-y))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return sessiondto.Marker{}, false
	}
	return cells[best].Marker, true
}

func widen(lo, hi float64) (float64, float64) {
	if hi-lo >= minSpan {
		return lo, hi
	}
	mid := (lo + hi) / 2
	return mid - minSpan/2, mid + minSpan/2
}

func scale(v, lo, hi float64, n int) int {
	if n == 1 {
		return 0
	}
	pos := int(math.Round((v - lo) / (hi - lo) * float64(n-1)))
	return min(max(pos, 0), n-1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
