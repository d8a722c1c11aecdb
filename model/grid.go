package model

import (
	"crypto/md5"
	"fmt"
	"math/rand/v2"

	"github.com/sheikhrachel/go-life/rules"
)

// Grid is a rectangular board of cells addressed as grid[row][col]; true is alive.
type Grid [][]bool

// CreateEmptyGrid allocates an all-dead grid with the given dimensions.
// Every row gets its own backing slice so rows never alias each other.
func CreateEmptyGrid(numRows, numCols int) Grid {
	numRows = max(0, numRows)
	numCols = max(0, numCols)

	grid := make(Grid, numRows)
	for i := range grid {
		grid[i] = make([]bool, numCols)
	}
	return grid
}

// Rows returns the number of rows in the grid
func (g Grid) Rows() int {
	return len(g)
}

// Cols returns the number of columns, taken from the first row
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Get returns the state of a cell, treating out-of-bounds coordinates as dead
func (g Grid) Get(row, col int) bool {
	if row < 0 || row >= g.Rows() || col < 0 || col >= len(g[row]) {
		return false
	}
	return g[row][col]
}

// Clone returns a deep copy of the grid
func (g Grid) Clone() Grid {
	clone := make(Grid, len(g))
	for i, row := range g {
		clone[i] = append([]bool(nil), row...)
		if clone[i] == nil {
			clone[i] = []bool{}
		}
	}
	return clone
}

// Equal reports whether both grids have the same shape and cell states
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if len(g[i]) != len(other[i]) {
			return false
		}
		for j := range g[i] {
			if g[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// CountLiving returns the total number of living cells
func (g Grid) CountLiving() (count int) {
	for _, row := range g {
		for _, alive := range row {
			if alive {
				count++
			}
		}
	}
	return
}

// Hash returns an MD5 digest of the grid shape and cell states
func (g Grid) Hash() string {
	h := md5.New()
	fmt.Fprintf(h, "%dx%d:", g.Rows(), g.Cols())
	for _, row := range g {
		for _, alive := range row {
			if alive {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Bounds is the inclusive bounding box of the living cells in a grid
type Bounds struct {
	MinRow, MaxRow int
	MinCol, MaxCol int
}

// Area returns the number of cells covered by the bounding box
func (b Bounds) Area() int {
	return (b.MaxRow - b.MinRow + 1) * (b.MaxCol - b.MinCol + 1)
}

// BoundingBox returns the active region of the grid. ok is false when nothing is alive.
func (g Grid) BoundingBox() (b Bounds, ok bool) {
	for row := range g {
		for col, alive := range g[row] {
			if !alive {
				continue
			}
			if !ok {
				b = Bounds{MinRow: row, MaxRow: row, MinCol: col, MaxCol: col}
				ok = true
				continue
			}
			b.MinRow = min(b.MinRow, row)
			b.MaxRow = max(b.MaxRow, row)
			b.MinCol = min(b.MinCol, col)
			b.MaxCol = max(b.MaxCol, col)
		}
	}
	return b, ok
}

// Randomize returns a new grid of the same shape where each cell is alive
// independently with the given probability.
func (g Grid) Randomize(rng *rand.Rand, probability float64) Grid {
	next := CreateEmptyGrid(g.Rows(), g.Cols())
	for row := range next {
		for col := range next[row] {
			next[row][col] = rng.Float64() < probability
		}
	}
	return next
}

// CountNeighbors counts living neighbors of (row, col). Positions outside the
// grid do not count; there is no wraparound.
func CountNeighbors(grid Grid, row, col int) int {
	count := 0

	minRow := max(0, row-1)
	maxRow := min(grid.Rows()-1, row+1)
	minCol := max(0, col-1)
	maxCol := min(grid.Cols()-1, col+1)

	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			if r == row && c == col {
				continue
			}
			if grid[r][c] {
				count++
			}
		}
	}

	return count
}

// NextGeneration computes the successor of grid under Conway's rules.
// The input is read as a frozen snapshot and is never modified; the result is a
// newly allocated grid of the same shape.
func NextGeneration(grid Grid) Grid {
	next := CreateEmptyGrid(grid.Rows(), grid.Cols())
	evolveRows(grid, next, 0, grid.Rows())
	return next
}

// evolveRows writes the next state of rows [startRow, endRow) of src into dst.
// dst must have the same shape as src and start out all dead.
func evolveRows(src, dst Grid, startRow, endRow int) {
	cols := src.Cols()
	for row := startRow; row < endRow; row++ {
		for col := 0; col < cols; col++ {
			if rules.ApplyConwayRules(CountNeighbors(src, row, col), src[row][col]) {
				dst[row][col] = true
			}
		}
	}
}
