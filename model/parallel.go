package model

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// NextGenerationParallel computes the same result as NextGeneration, splitting
// the rows into contiguous bands evaluated concurrently. workers <= 0 uses one
// band per CPU.
func NextGenerationParallel(grid Grid, workers int) Grid {
	next := CreateEmptyGrid(grid.Rows(), grid.Cols())
	evolveBands(grid, next, workers)
	return next
}

// NextGenerationPooled computes the same result as NextGeneration but takes the
// result grid from pool. Hand superseded grids back with GridToPool.
func NextGenerationPooled(grid Grid, pool *GridPool, workers int) Grid {
	if pool == nil {
		return NextGenerationParallel(grid, workers)
	}
	next := pool.Get(grid.Rows(), grid.Cols())
	evolveBands(grid, next, workers)
	return next
}

func evolveBands(src, dst Grid, workers int) {
	height := src.Rows()
	if height == 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, height)
	if workers == 1 {
		evolveRows(src, dst, 0, height)
		return
	}

	var (
		eg            errgroup.Group
		rowsPerWorker = (height + workers - 1) / workers // Ceiling division
	)

	for i := range workers {
		var (
			startRow = i * rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, height)
		)
		if startRow >= height {
			break
		}

		// Each band writes only its own rows of dst and reads src, which no one writes.
		eg.Go(func() error {
			evolveRows(src, dst, startRow, endRow)
			return nil
		})
	}

	_ = eg.Wait()
}
