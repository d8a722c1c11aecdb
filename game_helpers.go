package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-life/model"
	"github.com/sheikhrachel/go-life/sim"
	"github.com/sheikhrachel/go-life/utils"
)

const defaultConfigPath = "config.json"

// loadConfig layers defaults, the JSON config file and command line flags, in
// that order. A missing default config file is not an error; source is empty then.
func loadConfig(args []string) (cfg utils.Config, source string, err error) {
	probe := utils.DefaultConfig()
	pre := flag.NewFlagSet("go-life", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	path := pre.String("config", defaultConfigPath, "")
	probe.Bind(pre)
	// the real parse below reports flag errors
	_ = pre.Parse(args)

	explicit := false
	pre.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	cfg, err = utils.LoadConfig(*path)
	switch {
	case err == nil:
		source = *path
	case !explicit && os.IsNotExist(errors.Cause(err)):
		cfg = utils.DefaultConfig()
	default:
		return cfg, "", err
	}

	fs := flag.NewFlagSet("go-life", flag.ContinueOnError)
	fs.String("config", defaultConfigPath, "JSON configuration file")
	cfg.Bind(fs)
	if err = fs.Parse(args); err != nil {
		return cfg, "", err
	}

	if err = cfg.Validate(); err != nil {
		return cfg, "", errors.Wrap(err, "[loadConfig] rejected configuration")
	}
	return cfg, source, nil
}

// resolvePattern returns a built-in pattern by name or parses a pattern file
func resolvePattern(name string) (model.Pattern, error) {
	if p, ok := model.Patterns[strings.ToLower(name)]; ok {
		return p, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return model.Pattern{}, errors.Wrapf(err, "[resolvePattern] failed to open pattern: %+v", name)
	}
	defer f.Close()

	p, err := model.ParsePattern(f)
	if err != nil {
		return model.Pattern{}, errors.Wrapf(err, "[resolvePattern] failed to parse pattern: %+v", name)
	}
	return p, nil
}

// seedSession fills the session grid from the configured pattern, or randomly
func seedSession(session *sim.Session, cfg utils.Config, logger *slog.Logger) error {
	if cfg.Pattern == "" {
		session.Randomize()
		return nil
	}

	pattern, err := resolvePattern(cfg.Pattern)
	if err != nil {
		return err
	}
	if pattern.Cells.Rows() > cfg.Rows || pattern.Cells.Cols() > cfg.Cols {
		logger.Warn("pattern larger than grid, clipping",
			"pattern", pattern.Name, "size", fmt.Sprintf("%dx%d", pattern.Cells.Rows(), pattern.Cells.Cols()))
	}
	return session.Load(model.StampCentered(model.CreateEmptyGrid(cfg.Rows, cfg.Cols), pattern))
}

// checkRestartConditions determines if the game should restart
func checkRestartConditions(livingCells, stagnantCount int, config utils.Config) (bool, string) {
	if livingCells == 0 {
		return true, "extinction"
	}
	if stagnantCount >= config.StagnationThreshold {
		return true, "stagnation detected"
	}
	return false, ""
}

// renderFrame shows the status lines followed by the grid
func renderFrame(w io.Writer, renderer *model.TextRenderer, snap sim.Snapshot) error {
	if err := renderer.Clear(w); err != nil {
		return err
	}

	density := 0.0
	if cells := snap.Grid.Rows() * snap.Grid.Cols(); cells > 0 {
		density = float64(snap.Living) / float64(cells) * 100
	}

	status := "Active"
	if snap.Stagnant {
		status = "Stagnant"
	}
	if snap.Living == 0 {
		status = "Extinct"
	}

	boundingInfo := ""
	if b, ok := snap.Grid.BoundingBox(); ok {
		boundingInfo = fmt.Sprintf(" | Bounding box: %d cells", b.Area())
	}

	fmt.Fprintf(w, "Gen: %d | Steps: %d | Living: %d | Density: %.1f%% | Status: %s%s\n",
		snap.Generation, snap.Steps, snap.Living, density, status, boundingInfo)
	fmt.Fprintf(w, "Performance: %.1f gen/sec | Avg Pop: %.1f | Interval: %v | Runtime: %.1fs\n\n",
		snap.Stats.GenerationsPerSecond, snap.Stats.AveragePopulation, snap.Interval, snap.Stats.Runtime().Seconds())

	return renderer.Render(w, snap.Grid)
}

// run drives a session until ctx is cancelled or the generation limit is hit
func run(ctx context.Context, cfg utils.Config, out io.Writer, logger *slog.Logger) error {
	session := sim.New(sim.OptionsFromConfig(cfg), logger)
	if err := seedSession(session, cfg, logger); err != nil {
		return err
	}

	renderer := model.NewTextRenderer()
	if err := renderFrame(out, renderer, session.Snapshot()); err != nil {
		return errors.Wrap(err, "[run] failed to render")
	}
	logger.Info("simulation started",
		"rows", cfg.Rows, "cols", cfg.Cols, "living", session.Snapshot().Living,
		"parallel", cfg.UseParallel, "pool", cfg.UseMemoryPool)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		frames        = 0
		stagnantCount = 0
		renderErr     error
	)

	session.Start()
	err := session.Run(ctx, func(snap sim.Snapshot) {
		frames++
		if renderErr = renderFrame(out, renderer, snap); renderErr != nil {
			cancel()
			return
		}

		if snap.Stagnant {
			stagnantCount++
		} else {
			stagnantCount = 0
		}

		if cfg.MaxGenerations > 0 && frames >= cfg.MaxGenerations {
			logger.Info("reached maximum generations", "limit", cfg.MaxGenerations)
			cancel()
			return
		}

		if restart, reason := checkRestartConditions(snap.Living, stagnantCount, cfg); restart && cfg.AutoRestart {
			logger.Info("restarting", "reason", reason, "generation", snap.Generation)
			session.Randomize()
			stagnantCount = 0
		}
	})

	if renderErr != nil {
		return errors.Wrap(renderErr, "[run] failed to render")
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	snap := session.Snapshot()
	logger.Info("simulation stopped", "frames", frames, "generation", snap.Generation,
		"avg_population", fmt.Sprintf("%.1f", snap.Stats.AveragePopulation))
	return nil
}
