package model

import "github.com/pkg/errors"

// ErrMalformedGrid is returned when rows of a grid differ in length
var ErrMalformedGrid = errors.New("malformed grid: rows differ in length")

// Validate checks the rectangularity invariant
func Validate(grid Grid) error {
	cols := grid.Cols()
	for row := range grid {
		if len(grid[row]) != cols {
			return errors.Wrapf(ErrMalformedGrid, "[Validate] row %d has %d cells, expected %d", row, len(grid[row]), cols)
		}
	}
	return nil
}

// NextGenerationChecked validates grid before evolving it
func NextGenerationChecked(grid Grid) (Grid, error) {
	if err := Validate(grid); err != nil {
		return nil, errors.Wrap(err, "[NextGenerationChecked] refusing to evolve grid")
	}
	return NextGeneration(grid), nil
}
