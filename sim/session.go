// Package sim drives a grid through successive generations: it owns the current
// grid, the run/pause flag and the stepping cadence, and applies the direct edits
// (toggle, clear, randomize) that bypass the evolution engine.
package sim

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-life/model"
	"github.com/sheikhrachel/go-life/utils"
)

const historySize = 5

var (
	// ErrOutOfRange is returned when a coordinate falls outside the grid
	ErrOutOfRange = errors.New("cell out of range")
	// ErrInvalidProbability is returned for alive probabilities outside [0, 1]
	ErrInvalidProbability = errors.New("probability must be in [0, 1]")
)

// Options configures a Session
type Options struct {
	Rows, Cols       int
	Interval         time.Duration
	MinInterval      time.Duration
	IntervalStep     time.Duration
	AliveProbability float64
	Seed             int64
	Parallel         bool
	Workers          int
	UsePool          bool
}

// OptionsFromConfig maps the run configuration onto session options
func OptionsFromConfig(cfg utils.Config) Options {
	return Options{
		Rows:             cfg.Rows,
		Cols:             cfg.Cols,
		Interval:         time.Duration(cfg.Interval),
		MinInterval:      time.Duration(cfg.MinInterval),
		IntervalStep:     time.Duration(cfg.IntervalStep),
		AliveProbability: cfg.AliveProbability,
		Seed:             cfg.Seed,
		Parallel:         cfg.UseParallel,
		Workers:          cfg.Workers,
		UsePool:          cfg.UseMemoryPool,
	}
}

// Snapshot is a point-in-time copy of the session state
type Snapshot struct {
	Grid       model.Grid
	Generation int
	Steps      int
	Living     int
	Stagnant   bool
	Running    bool
	Interval   time.Duration
	Stats      utils.Stats
}

// Session holds one grid value and replaces it with its successor on every step.
// All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	opts     Options
	grid     model.Grid
	pool     *model.GridPool
	rng      *rand.Rand
	running  bool
	interval time.Duration

	generation int
	steps      int
	history    []string
	stagnant   bool
	stats      *utils.Stats
	lastStep   time.Time

	wake   chan struct{}
	logger *slog.Logger
}

// New returns a paused session with an empty grid
func New(opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = utils.DiscardLogger()
	}
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	if opts.MinInterval <= 0 || opts.MinInterval > opts.Interval {
		opts.MinInterval = opts.Interval
	}
	if opts.IntervalStep <= 0 {
		opts.IntervalStep = 50 * time.Millisecond
	}

	s := &Session{
		opts:     opts,
		grid:     model.CreateEmptyGrid(opts.Rows, opts.Cols),
		rng:      newRNG(opts.Seed),
		interval: opts.Interval,
		wake:     make(chan struct{}, 1),
		logger:   logger.With("component", "session"),
	}
	if opts.UsePool {
		s.pool = model.NewGridPool()
	}
	s.resetCountersLocked()
	return s
}

func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// Grid returns a copy of the current grid
func (s *Session) Grid() model.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Grid:       s.grid.Clone(),
		Generation: s.generation,
		Steps:      s.steps,
		Living:     s.grid.CountLiving(),
		Stagnant:   s.stagnant,
		Running:    s.running,
		Interval:   s.interval,
		Stats:      *s.stats,
	}
}

// Load replaces the grid with a copy of grid and resets the counters
func (s *Session) Load(grid model.Grid) error {
	if err := model.Validate(grid); err != nil {
		return errors.Wrap(err, "[Load] failed to load grid")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(grid.Clone())
	s.logger.Info("grid loaded", "rows", grid.Rows(), "cols", grid.Cols(), "living", s.grid.CountLiving())
	return nil
}

// Toggle flips the cell at (row, col)
func (s *Session) Toggle(row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 0 || row >= s.grid.Rows() || col < 0 || col >= s.grid.Cols() {
		return errors.Wrapf(ErrOutOfRange, "[Toggle] (%d, %d) outside %dx%d grid", row, col, s.grid.Rows(), s.grid.Cols())
	}
	s.grid[row][col] = !s.grid[row][col]
	s.history = s.history[:0]
	s.stagnant = false
	return nil
}

// Clear replaces the grid with an empty one of the same shape and resets the counters
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(model.CreateEmptyGrid(s.grid.Rows(), s.grid.Cols()))
	s.logger.Info("grid cleared")
}

// Randomize replaces the grid with a random one using the configured probability
func (s *Session) Randomize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.randomizeLocked(s.opts.AliveProbability)
}

// RandomizeWith replaces the grid with a random one where each cell is alive with probability p
func (s *Session) RandomizeWith(p float64) error {
	if p < 0 || p > 1 {
		return errors.Wrapf(ErrInvalidProbability, "[RandomizeWith] got %v", p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.randomizeLocked(p)
	return nil
}

// Reseed restarts the random source so later randomizations are reproducible
func (s *Session) Reseed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = newRNG(seed)
}

func (s *Session) randomizeLocked(p float64) {
	s.replaceLocked(s.grid.Randomize(s.rng, p))
	s.logger.Info("grid randomized", "probability", p, "living", s.grid.CountLiving())
}

func (s *Session) replaceLocked(grid model.Grid) {
	model.GridToPool(s.grid, s.pool)
	s.grid = grid
	s.resetCountersLocked()
}

func (s *Session) resetCountersLocked() {
	s.generation = 0
	s.steps = 0
	s.history = s.history[:0]
	s.stagnant = false
	s.stats = utils.NewStats()
	s.lastStep = time.Now()
}

// Step advances the grid by one generation and returns the new state
func (s *Session) Step() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, s.grid.Hash())
	if len(s.history) > historySize {
		s.history = s.history[1:]
	}

	var next model.Grid
	switch {
	case s.pool != nil:
		next = model.NextGenerationPooled(s.grid, s.pool, s.workers())
	case s.opts.Parallel:
		next = model.NextGenerationParallel(s.grid, s.opts.Workers)
	default:
		next = model.NextGeneration(s.grid)
	}
	// the superseded grid never escapes the session, so it can be recycled
	model.GridToPool(s.grid, s.pool)
	s.grid = next

	s.generation++
	s.steps++
	s.stagnant = s.isStagnantLocked()

	now := time.Now()
	living := s.grid.CountLiving()
	s.stats.Update(s.generation, living, now.Sub(s.lastStep))
	s.lastStep = now

	s.logger.Debug("generation computed", "generation", s.generation, "living", living, "stagnant", s.stagnant)
	return s.snapshotLocked()
}

// workers returns the band count for pooled evolution; 1 keeps it sequential
func (s *Session) workers() int {
	if !s.opts.Parallel {
		return 1
	}
	return s.opts.Workers
}

// isStagnantLocked reports whether the current grid repeats one of the last
// three generations, which catches still lifes and period 2 and 3 oscillators.
func (s *Session) isStagnantLocked() bool {
	current := s.grid.Hash()
	for i := len(s.history) - 1; i >= 0 && i >= len(s.history)-3; i-- {
		if s.history[i] == current {
			return true
		}
	}
	return false
}

// Stagnant reports whether the last step repeated a recent generation
func (s *Session) Stagnant() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stagnant
}

// Start sets the run flag
func (s *Session) Start() {
	s.setRunning(true)
}

// Stop clears the run flag
func (s *Session) Stop() {
	s.setRunning(false)
}

func (s *Session) setRunning(running bool) {
	s.mu.Lock()
	changed := s.running != running
	s.running = running
	s.mu.Unlock()

	if changed {
		s.logger.Info("run state changed", "running", running)
		s.notify()
	}
}

// Running reports whether the session is stepping
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval returns the current delay between generations
func (s *Session) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Faster shortens the interval by one step, never going below the minimum
func (s *Session) Faster() time.Duration {
	s.mu.Lock()
	s.interval = max(s.opts.MinInterval, s.interval-s.opts.IntervalStep)
	interval := s.interval
	s.mu.Unlock()

	s.notify()
	return interval
}

// Slower lengthens the interval by one step
func (s *Session) Slower() time.Duration {
	s.mu.Lock()
	s.interval += s.opts.IntervalStep
	interval := s.interval
	s.mu.Unlock()

	s.notify()
	return interval
}

func (s *Session) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run steps the session every Interval while it is running and hands each new
// state to onFrame. Run blocks until ctx is done and returns ctx.Err().
func (s *Session) Run(ctx context.Context, onFrame func(Snapshot)) error {
	timer := time.NewTimer(s.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.Interval())
		case <-timer.C:
			if s.Running() {
				snap := s.Step()
				if onFrame != nil {
					onFrame(snap)
				}
			}
			timer.Reset(s.Interval())
		}
	}
}
