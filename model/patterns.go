package model

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Pattern is a small rectangular arrangement of cells that can be stamped onto a grid
type Pattern struct {
	Name  string
	Cells Grid
}

var (
	// Block is the 2x2 still life
	Block = Pattern{Name: "block", Cells: Grid{
		{true, true},
		{true, true},
	}}

	// Blinker is the horizontal phase of the period-2 oscillator
	Blinker = Pattern{Name: "blinker", Cells: Grid{
		{true, true, true},
	}}

	// Glider moves one cell down and right every 4 generations
	Glider = Pattern{Name: "glider", Cells: Grid{
		{false, true, false},
		{false, false, true},
		{true, true, true},
	}}
)

// Patterns indexes the built-in patterns by name
var Patterns = map[string]Pattern{
	Block.Name:   Block,
	Blinker.Name: Blinker,
	Glider.Name:  Glider,
}

// Stamp returns a copy of grid with the pattern's living cells set, top-left
// corner at (row, col). Parts falling outside the grid are clipped.
func Stamp(grid Grid, pattern Pattern, row, col int) Grid {
	next := grid.Clone()
	for dr, cells := range pattern.Cells {
		for dc, alive := range cells {
			r, c := row+dr, col+dc
			if !alive || r < 0 || r >= next.Rows() || c < 0 || c >= len(next[r]) {
				continue
			}
			next[r][c] = true
		}
	}
	return next
}

// StampCentered stamps the pattern in the middle of the grid
func StampCentered(grid Grid, pattern Pattern) Grid {
	row := (grid.Rows() - pattern.Cells.Rows()) / 2
	col := (grid.Cols() - pattern.Cells.Cols()) / 2
	return Stamp(grid, pattern, row, col)
}

// ParsePattern reads a pattern in plaintext format. Lines starting with '!' are
// comments ("!Name: x" sets the name), 'O' or '*' is alive and '.' is dead.
// Short rows are padded with dead cells.
func ParsePattern(r io.Reader) (Pattern, error) {
	var (
		p       Pattern
		rows    [][]bool
		width   int
		lineNum int
		scanner = bufio.NewScanner(r)
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.HasPrefix(line, "!") {
			if name, ok := strings.CutPrefix(line, "!Name:"); ok {
				p.Name = strings.TrimSpace(name)
			}
			continue
		}

		row := make([]bool, 0, len(line))
		for col, ch := range line {
			switch ch {
			case 'O', '*':
				row = append(row, true)
			case '.':
				row = append(row, false)
			default:
				return Pattern{}, errors.Errorf("[ParsePattern] unexpected %q at line %d column %d", ch, lineNum, col+1)
			}
		}
		width = max(width, len(row))
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return Pattern{}, errors.Wrap(err, "[ParsePattern] failed to read pattern")
	}

	// drop trailing blank lines
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return Pattern{}, errors.New("[ParsePattern] pattern has no cells")
	}

	p.Cells = CreateEmptyGrid(len(rows), width)
	for i, row := range rows {
		copy(p.Cells[i], row)
	}
	return p, nil
}
