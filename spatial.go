package main

import "math"

// SpatialGrid is a uniform grid over the map used for broad-phase wall queries.
// Cells hold indices into GameMap.Walls; a wall spanning several cells is listed
// in each of them, so query results may repeat an index.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int
}

// NewSpatialGrid creates a grid covering width x height
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil(width/cellSize)) + 1
	rows := int(math.Ceil(height/cellSize)) + 1
	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]int, cols*rows),
	}
}

// cellRange converts a bounding box into cell bounds. Each edge is clamped
// into the grid on its own, so a box lying outside the map still lands in the
// nearest edge cells instead of producing an empty range.
func (g *SpatialGrid) cellRange(minX, minY, maxX, maxY float64) (int, int, int, int) {
	return g.cell(minX, g.cols), g.cell(minY, g.rows), g.cell(maxX, g.cols), g.cell(maxY, g.rows)
}

func (g *SpatialGrid) cell(v float64, n int) int {
	c := math.Floor(v / g.cellSize)
	return int(Clamp(c, 0, float64(n-1)))
}

// InsertRect adds an index to every cell overlapped by the rectangle
func (g *SpatialGrid) InsertRect(minX, minY, maxX, maxY float64, idx int) {
	minCX, minCY, maxCX, maxCY := g.cellRange(minX, minY, maxX, maxY)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			i := cy*g.cols + cx
			g.cells[i] = append(g.cells[i], idx)
		}
	}
}

// QueryBuf appends the indices in cells overlapping the box to buf and returns
// the extended slice, avoiding per-call allocation
func (g *SpatialGrid) QueryBuf(minX, minY, maxX, maxY float64, buf []int) []int {
	minCX, minCY, maxCX, maxCY := g.cellRange(minX, minY, maxX, maxY)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}

