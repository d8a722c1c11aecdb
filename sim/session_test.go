package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikhrachel/go-life/model"
	"github.com/sheikhrachel/go-life/utils"
)

func testOptions() Options {
	return Options{
		Rows:             10,
		Cols:             12,
		Interval:         100 * time.Millisecond,
		MinInterval:      50 * time.Millisecond,
		IntervalStep:     50 * time.Millisecond,
		AliveProbability: 0.3,
		Seed:             42,
	}
}

func TestNewSessionStartsEmptyAndPaused(t *testing.T) {
	s := New(testOptions(), nil)

	snap := s.Snapshot()
	assert.Equal(t, 10, snap.Grid.Rows())
	assert.Equal(t, 12, snap.Grid.Cols())
	assert.Zero(t, snap.Living)
	assert.Zero(t, snap.Generation)
	assert.Zero(t, snap.Steps)
	assert.False(t, snap.Running)
	assert.Equal(t, 100*time.Millisecond, snap.Interval)
}

func TestToggle(t *testing.T) {
	s := New(testOptions(), nil)

	require.NoError(t, s.Toggle(3, 4))
	assert.True(t, s.Grid()[3][4])
	require.NoError(t, s.Toggle(3, 4))
	assert.False(t, s.Grid()[3][4])

	for _, rc := range [][2]int{{-1, 0}, {0, -1}, {10, 0}, {0, 12}} {
		err := s.Toggle(rc[0], rc[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOutOfRange), "%v", rc)
	}
}

func TestGridReturnsCopy(t *testing.T) {
	s := New(testOptions(), nil)
	g := s.Grid()
	g[0][0] = true
	assert.False(t, s.Grid()[0][0])
}

func TestStepAdvancesBlinker(t *testing.T) {
	for _, opts := range []Options{
		testOptions(),
		func() Options { o := testOptions(); o.Parallel, o.Workers = true, 3; return o }(),
		func() Options { o := testOptions(); o.UsePool = true; return o }(),
		func() Options { o := testOptions(); o.UsePool, o.Parallel = true, true; return o }(),
	} {
		s := New(opts, nil)
		start := model.Stamp(model.CreateEmptyGrid(10, 12), model.Blinker, 4, 4)
		require.NoError(t, s.Load(start))

		snap := s.Step()
		assert.Equal(t, 1, snap.Generation)
		assert.Equal(t, 1, snap.Steps)
		assert.Equal(t, 3, snap.Living)
		assert.True(t, snap.Grid[3][5] && snap.Grid[4][5] && snap.Grid[5][5])
		assert.False(t, snap.Stagnant)

		snap = s.Step()
		assert.Equal(t, 2, snap.Generation)
		assert.True(t, snap.Grid.Equal(start))
		assert.True(t, snap.Stagnant, "period 2 oscillator repeats a recent generation")
		assert.True(t, s.Stagnant())
	}
}

func TestStillLifeIsStagnant(t *testing.T) {
	s := New(testOptions(), nil)
	require.NoError(t, s.Load(model.StampCentered(model.CreateEmptyGrid(10, 12), model.Block)))

	assert.True(t, s.Step().Stagnant)
}

func TestToggleClearsStagnation(t *testing.T) {
	s := New(testOptions(), nil)
	s.Step()
	require.True(t, s.Stagnant())

	require.NoError(t, s.Toggle(0, 0))
	assert.False(t, s.Stagnant())
}

func TestClearResetsCounters(t *testing.T) {
	s := New(testOptions(), nil)
	s.Randomize()
	s.Step()
	s.Step()

	s.Clear()
	snap := s.Snapshot()
	assert.Zero(t, snap.Living)
	assert.Zero(t, snap.Generation)
	assert.Zero(t, snap.Steps)
	assert.Equal(t, 10, snap.Grid.Rows())
}

func TestRandomizeIsSeeded(t *testing.T) {
	a := New(testOptions(), nil)
	b := New(testOptions(), nil)
	a.Randomize()
	b.Randomize()
	assert.True(t, a.Grid().Equal(b.Grid()))
	assert.NotZero(t, a.Snapshot().Living)

	a.Step()
	a.Randomize()
	assert.Zero(t, a.Snapshot().Generation)

	a.Reseed(7)
	b.Reseed(7)
	a.Randomize()
	b.Randomize()
	assert.True(t, a.Grid().Equal(b.Grid()))
}

func TestRandomizeWith(t *testing.T) {
	s := New(testOptions(), nil)

	require.NoError(t, s.RandomizeWith(1))
	assert.Equal(t, 120, s.Snapshot().Living)
	require.NoError(t, s.RandomizeWith(0))
	assert.Zero(t, s.Snapshot().Living)

	for _, p := range []float64{-0.1, 1.1} {
		err := s.RandomizeWith(p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidProbability))
	}
}

func TestLoadRejectsMalformedGrid(t *testing.T) {
	s := New(testOptions(), nil)
	err := s.Load(model.Grid{{true, false}, {true}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedGrid))
}

func TestLoadCopiesInput(t *testing.T) {
	s := New(testOptions(), nil)
	g := model.CreateEmptyGrid(3, 3)
	require.NoError(t, s.Load(g))

	g[1][1] = true
	assert.False(t, s.Grid()[1][1])

	s.Clear()
	assert.Equal(t, 3, s.Grid().Rows(), "clear keeps the loaded shape")
}

func TestSpeedAdjustment(t *testing.T) {
	s := New(testOptions(), nil)

	assert.Equal(t, 50*time.Millisecond, s.Faster())
	assert.Equal(t, 50*time.Millisecond, s.Faster(), "interval floors at the minimum")
	assert.Equal(t, 100*time.Millisecond, s.Slower())
	assert.Equal(t, 150*time.Millisecond, s.Slower())
	assert.Equal(t, 150*time.Millisecond, s.Interval())
}

func TestNewFillsInvalidCadence(t *testing.T) {
	s := New(Options{Rows: 2, Cols: 2}, nil)
	assert.Equal(t, 100*time.Millisecond, s.Interval())
	assert.Equal(t, 100*time.Millisecond, s.Faster())
	assert.Equal(t, 150*time.Millisecond, s.Slower())
}

func TestRunStepsOnlyWhileRunning(t *testing.T) {
	opts := testOptions()
	opts.Interval = 5 * time.Millisecond
	opts.MinInterval = time.Millisecond
	s := New(opts, nil)
	require.NoError(t, s.Load(model.StampCentered(model.CreateEmptyGrid(10, 12), model.Blinker)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		frames []Snapshot
		done   = make(chan error, 1)
	)
	go func() {
		done <- s.Run(ctx, func(snap Snapshot) {
			mu.Lock()
			frames = append(frames, snap)
			n := len(frames)
			mu.Unlock()
			if n == 3 {
				s.Stop()
			}
		})
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, s.Snapshot().Generation, "paused session must not step")

	s.Start()
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, frames, 3)
	for i, snap := range frames {
		assert.Equal(t, i+1, snap.Generation)
	}
	assert.Equal(t, 3, s.Snapshot().Generation)
}

func TestRunReturnsOnCancel(t *testing.T) {
	s := New(testOptions(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := s.Run(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := utils.DefaultConfig()
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, cfg.Rows, opts.Rows)
	assert.Equal(t, cfg.Cols, opts.Cols)
	assert.Equal(t, time.Duration(cfg.Interval), opts.Interval)
	assert.Equal(t, cfg.AliveProbability, opts.AliveProbability)
	assert.Equal(t, cfg.UseMemoryPool, opts.UsePool)
}
