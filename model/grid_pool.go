package model

import "sync"

// GridToPool returns a grid to the pool for reuse
func GridToPool(grid Grid, pool *GridPool) {
	if pool == nil || grid == nil {
		return
	}

	pool.Put(grid)
}

// GridPool recycles superseded grids between generations
type GridPool struct {
	pool sync.Pool
}

func NewGridPool() *GridPool {
	return &GridPool{
		pool: sync.Pool{
			New: func() interface{} {
				return new(Grid)
			},
		},
	}
}

// Get retrieves an all-dead grid with the requested dimensions, reusing row
// storage when the pooled grid is big enough.
func (p *GridPool) Get(numRows, numCols int) Grid {
	numRows = max(0, numRows)
	numCols = max(0, numCols)

	gp := p.pool.Get().(*Grid)
	g := *gp
	if cap(g) < numRows {
		g = make(Grid, numRows)
	}
	g = g[:numRows]
	for i := range g {
		if cap(g[i]) < numCols {
			g[i] = make([]bool, numCols)
			continue
		}
		g[i] = g[i][:numCols]
		clear(g[i])
	}
	return g
}

// Put hands a grid back to the pool. The caller must not use it afterwards.
func (p *GridPool) Put(g Grid) {
	p.pool.Put(&g)
}
