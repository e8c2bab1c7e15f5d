package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

var errEmptyMap = errors.New("map has no cells")

// gridMap is a walkability grid read from text. Line r is row r along +z and
// column c runs along +x. '#' is blocked, every other character is walkable.
type gridMap struct {
	width, height int
	walkable      []bool // [height*width]
}

func parseMap(r io.Reader) (*gridMap, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	m := &gridMap{height: len(lines)}
	for _, l := range lines {
		m.width = max(m.width, len(l))
	}
	if m.width == 0 || m.height == 0 {
		return nil, errEmptyMap
	}
	// short lines are padded with walls
	m.walkable = make([]bool, m.width*m.height)
	for r, l := range lines {
		for c := 0; c < len(l); c++ {
			m.walkable[r*m.width+c] = l[c] != '#'
		}
	}
	return m, nil
}

func loadMap(path string) (*gridMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := parseMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *gridMap) at(c, r int) bool {
	if m == nil || c < 0 || r < 0 || c >= m.width || r >= m.height {
		return false
	}
	return m.walkable[r*m.width+c]
}

// tileGrid is the number of tiles of size cells covering the map.
func (m *gridMap) tileGrid(size int) (cols, rows int) {
	return (m.width + size - 1) / size, (m.height + size - 1) / size
}

// tileCells cuts the cells of tile (tx, ty). Cells past the map are blocked.
func (m *gridMap) tileCells(tx, ty, size int) []bool {
	cells := make([]bool, size*size)
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			cells[r*size+c] = m.at(tx*size+c, ty*size+r)
		}
	}
	return cells
}

type tileCoord struct{ x, y int }

// diffTiles lists the tiles of a cols x rows grid whose cells differ between
// old and next.
func diffTiles(old, next *gridMap, size, cols, rows int) []tileCoord {
	var out []tileCoord
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if !slices.Equal(old.tileCells(x, y, size), next.tileCells(x, y, size)) {
				out = append(out, tileCoord{x, y})
			}
		}
	}
	return out
}
