// Package route validates paths drawn across the pathfinding quest's terrain grid.
package route

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinate is a grid cell. Col is zero-based (A=0); Row is one-based as printed on the map.
type Coordinate struct {
	Col int
	Row int
}

// ParseCoordinate reads tokens like "C5" or "c5"
func ParseCoordinate(token string) (Coordinate, error) {
	s := strings.ToUpper(strings.TrimSpace(token))
	if len(s) < 2 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q", token)
	}
	letter := s[0]
	if letter < 'A' || letter > 'Z' {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: column must be a letter", token)
	}
	row, err := strconv.Atoi(s[1:])
	if err != nil || row < 1 {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: row must be a positive number", token)
	}
	return Coordinate{Col: int(letter - 'A'), Row: row}, nil
}

// MustParse is ParseCoordinate for fixed literals
func MustParse(token string) Coordinate {
	c, err := ParseCoordinate(token)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Coordinate) String() string {
	return string(rune('A'+c.Col)) + strconv.Itoa(c.Row)
}

// Adjacent reports a 4-directional neighbour: one step in exactly one axis
func (c Coordinate) Adjacent(o Coordinate) bool {
	dc := abs(c.Col - o.Col)
	dr := abs(c.Row - o.Row)
	return (dc == 1 && dr == 0) || (dc == 0 && dr == 1)
}

// Terrain classifies a cell
type Terrain int

const (
	Plain Terrain = iota
	Ocean
	Mountain
	Hazard
)

// Passable reports whether a route may enter the cell
func (t Terrain) Passable() bool {
	return t == Plain || t == Hazard
}

func (t Terrain) String() string {
	switch t {
	case Ocean:
		return "ocean"
	case Mountain:
		return "mountain"
	case Hazard:
		return "hazard"
	default:
		return "plain"
	}
}

// Grid is a rectangular terrain map. Cells not set explicitly are Plain.
type Grid struct {
	Columns int
	Rows    int
	terrain map[Coordinate]Terrain
}

// NewGrid creates an all-plain grid
func NewGrid(columns, rows int) *Grid {
	return &Grid{Columns: columns, Rows: rows, terrain: make(map[Coordinate]Terrain)}
}

// InBounds reports whether the coordinate lies on the grid
func (g *Grid) InBounds(c Coordinate) bool {
	return c.Col >= 0 && c.Col < g.Columns && c.Row >= 1 && c.Row <= g.Rows
}

// Set classifies a cell
func (g *Grid) Set(c Coordinate, t Terrain) error {
	if !g.InBounds(c) {
		return fmt.Errorf("cell %s is outside the %dx%d grid", c, g.Columns, g.Rows)
	}
	if t == Plain {
		delete(g.terrain, c)
		return nil
	}
	g.terrain[c] = t
	return nil
}

// SetAll classifies every token in cells
func (g *Grid) SetAll(cells []string, t Terrain) error {
	for _, token := range cells {
		c, err := ParseCoordinate(token)
		if err != nil {
			return err
		}
		if err := g.Set(c, t); err != nil {
			return err
		}
	}
	return nil
}

// Terrain returns the cell's classification
func (g *Grid) Terrain(c Coordinate) Terrain {
	return g.terrain[c]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
