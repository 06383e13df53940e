package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Tile glyphs in map text
const (
	TileOpen  = '.'
	TileWall  = '#'
	TileSpawn = 'S'
)

// ErrInvalidMap is returned when a tile grid cannot be turned into a map
var ErrInvalidMap = errors.New("invalid map")

// defaultMapRows is the built-in arena used when no map file is configured
var defaultMapRows = []string{
	"####################",
	"#S.......#.......S.#",
	"#........#.........#",
	"#..###...#...###...#",
	"#..#.........#.....#",
	"#..#....S....#..S..#",
	"#......###.........#",
	"#S.................#",
	"#......###......S..#",
	"#..#.........#.....#",
	"#..#...S.....#.....#",
	"#..###...#...###...#",
	"#........#.........#",
	"#S.......#.......S.#",
	"####################",
}

// Point is a map coordinate
type Point struct {
	X, Y float64
}

// GameMap is the immutable level geometry: walls derived from the tile grid
// plus spawn points. It is safe for concurrent reads.
type GameMap struct {
	TileSize float64
	Width    float64
	Height   float64
	Walls    []Wall
	Spawns   []Point
	grid     *SpatialGrid
}

// NewGameMap builds a map from explicit wall rectangles
func NewGameMap(width, height float64, walls []Wall, spawns []Point) *GameMap {
	return newGameMap(width, height, walls, spawns, 80)
}

func newGameMap(width, height float64, walls []Wall, spawns []Point, cell float64) *GameMap {
	m := &GameMap{
		Width:    width,
		Height:   height,
		Walls:    walls,
		Spawns:   spawns,
		grid:     NewSpatialGrid(width, height, cell),
	}
	for i, w := range walls {
		m.grid.InsertRect(w.X, w.Y, w.X+w.W, w.Y+w.H, i)
	}
	return m
}

// ParseMap converts text rows into a map. Each wall tile becomes a
// tileSize x tileSize rectangle; each spawn tile contributes its centre.
func ParseMap(rows []string, tileSize float64) (*GameMap, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("%w: tile size %v", ErrInvalidMap, tileSize)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidMap)
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: empty row", ErrInvalidMap)
	}

	var walls []Wall
	var spawns []Point
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d tiles, expected %d", ErrInvalidMap, r, len(row), cols)
		}
		for c, ch := range []byte(row) {
			x := float64(c) * tileSize
			y := float64(r) * tileSize
			switch ch {
			case TileWall:
				walls = append(walls, Wall{X: x, Y: y, W: tileSize, H: tileSize})
			case TileSpawn:
				spawns = append(spawns, Point{X: x + tileSize/2, Y: y + tileSize/2})
			case TileOpen:
			default:
				return nil, fmt.Errorf("%w: unknown tile %q at row %d col %d", ErrInvalidMap, ch, r, c)
			}
		}
	}
	if len(spawns) == 0 {
		return nil, fmt.Errorf("%w: no spawn points", ErrInvalidMap)
	}

	m := newGameMap(float64(cols)*tileSize, float64(len(rows))*tileSize, walls, spawns, 2*tileSize)
	m.TileSize = tileSize
	return m, nil
}

// LoadMapFile reads a map in the text tile format. Blank lines are skipped.
func LoadMapFile(path string, tileSize float64) (*GameMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	var rows []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return ParseMap(rows, tileSize)
}

// DefaultMap returns the built-in arena
func DefaultMap(tileSize float64) *GameMap {
	m, err := ParseMap(defaultMapRows, tileSize)
	if err != nil {
		panic("default map: " + err.Error())
	}
	return m
}

// IsBlocked reports whether a circle of the given radius centred at (x,y)
// overlaps any wall
func (m *GameMap) IsBlocked(x, y, radius float64) bool {
	var buf [16]int
	for _, idx := range m.grid.QueryBuf(x-radius, y-radius, x+radius, y+radius, buf[:0]) {
		if CircleIntersectsRect(x, y, radius, m.Walls[idx]) {
			return true
		}
	}
	return false
}

// HasLineOfSight reports whether the segment between two points crosses no wall
func (m *GameMap) HasLineOfSight(x1, y1, x2, y2 float64) bool {
	var buf [64]int
	minX, maxX := min(x1, x2), max(x1, x2)
	minY, maxY := min(y1, y2), max(y1, y2)
	for _, idx := range m.grid.QueryBuf(minX, minY, maxX, maxY, buf[:0]) {
		if SegmentIntersectsRect(x1, y1, x2, y2, m.Walls[idx]) {
			return false
		}
	}
	return true
}

// ClampToBounds keeps a circle of the given radius inside the map
func (m *GameMap) ClampToBounds(x, y, radius float64) (float64, float64) {
	return Clamp(x, radius, m.Width-radius), Clamp(y, radius, m.Height-radius)
}
