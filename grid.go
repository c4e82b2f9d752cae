package heat

import "math"

// gridKey addresses one coarse cell of the spatial value grid.
type gridKey struct {
	cx, cy int
}

// valueGrid is a sparse mapping from coarse grid cell to the sum of raw
// point values whose coordinates floor into that cell. It serves
// "what raw value is here" queries independently of rendering and is
// rebuilt in full whenever the point set changes.
type valueGrid struct {
	cellSize int
	cells    map[gridKey]float64
}

func newValueGrid(cellSize int) *valueGrid {
	return &valueGrid{
		cellSize: cellSize,
		cells:    make(map[gridKey]float64),
	}
}

// key returns the cell containing the coordinate (x, y).
func (g *valueGrid) key(x, y float64) gridKey {
	cs := float64(g.cellSize)
	return gridKey{
		cx: int(math.Floor(x / cs)),
		cy: int(math.Floor(y / cs)),
	}
}

// rebuild clears the grid and re-sums all points from scratch. There is
// no incremental update path: each rebuild is a pure function of the
// current point set, and it only runs on data changes, not per frame.
func (g *valueGrid) rebuild(points []Point) {
	clear(g.cells)
	for i := range points {
		k := g.key(points[i].X, points[i].Y)
		g.cells[k] += points[i].Value
	}
}

// valueAt returns the accumulated raw value of the cell containing
// (x, y). Cells with no points return 0.
func (g *valueGrid) valueAt(x, y float64) float64 {
	return g.cells[g.key(x, y)]
}
