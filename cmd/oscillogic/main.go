package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-oscillogic/oscillogic"
	"github.com/valerio/go-oscillogic/oscillogic/audio"
	"github.com/valerio/go-oscillogic/oscillogic/backend"
	"github.com/valerio/go-oscillogic/oscillogic/backend/headless"
	"github.com/valerio/go-oscillogic/oscillogic/backend/terminal"
	"github.com/valerio/go-oscillogic/oscillogic/output"
	"github.com/valerio/go-oscillogic/oscillogic/patch"
	"github.com/valerio/go-oscillogic/oscillogic/serial"
	"github.com/valerio/go-oscillogic/oscillogic/timing"
)

// playbackBufferSeconds sizes the ring between the monitor and the player.
const playbackBufferSeconds = 0.5

func main() {
	defaults := oscillogic.DefaultConfig()

	app := cli.NewApp()
	app.Name = "oscillogic"
	app.Description = "Wavetable oscillators combined through logic gates into a one-bit output"
	app.Usage = "oscillogic [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.Float64Flag{
			Name:  "sample-rate",
			Usage: "Tick rate in Hz",
			Value: defaults.SampleRate,
		},
		cli.IntFlag{
			Name:  "oversample",
			Usage: "One-bit output slots per tick",
			Value: defaults.OversampleRatio,
		},
		cli.IntFlag{
			Name:  "queue-depth",
			Usage: "Pending ticks allowed between timer and task before ticks are dropped",
			Value: defaults.QueueDepth,
		},
		cli.Uint64Flag{
			Name:  "ticks",
			Usage: "Stop after N ticks (0 = run until interrupted)",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without the terminal interface",
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Tick pacing: adaptive, ticker or none (offline rendering)",
			Value: defaults.Limiter,
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Record the output to a WAV file",
		},
		cli.StringFlag{
			Name:  "bitstream",
			Usage: "Write the oversampled one-bit stream to a file (MSB first)",
		},
		cli.StringFlag{
			Name:  "link",
			Usage: "Stream output batches as unsigned 8-bit samples to a file or FIFO",
		},
		cli.BoolFlag{
			Name:  "link-framed",
			Usage: "Prefix every batch on the link with a sync/sequence header",
		},
		cli.StringFlag{
			Name:  "patch",
			Usage: "Lua patch applied before the engine starts",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory for snapshots (default: temp directory in headless mode, current directory otherwise)",
		},
		cli.BoolFlag{
			Name:  "play",
			Usage: "Play the output on the default audio device (needs a build with -tags oto)",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
			Value: "info",
		},
	}
	app.Action = runOscillogic

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running oscillogic", "error", err)
		os.Exit(1)
	}
}

func runOscillogic(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid --log-level %q", c.String("log-level"))
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := oscillogic.DefaultConfig()
	cfg.SampleRate = c.Float64("sample-rate")
	cfg.OversampleRatio = c.Int("oversample")
	cfg.QueueDepth = c.Int("queue-depth")
	cfg.MaxTicks = c.Uint64("ticks")
	cfg.Limiter = c.String("limiter")
	if err := cfg.Validate(); err != nil {
		return err
	}

	headlessMode := c.Bool("headless") || !term.IsTerminal(int(os.Stdout.Fd()))
	if headlessMode && cfg.Offline() && cfg.MaxTicks == 0 {
		return errors.New("offline rendering (--limiter none) requires --ticks")
	}

	var sink output.DutySink
	if path := c.String("bitstream"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create bitstream file: %w", err)
		}
		defer f.Close()

		var opts []output.SigmaDeltaOption
		if cfg.Offline() {
			opts = append(opts, output.WithBackpressure())
		}
		sd := output.NewSigmaDelta(cfg.OversampleRatio, f, opts...)
		defer func() {
			if err := sd.Flush(); err != nil {
				slog.Error("Failed to flush bitstream", "path", path, "error", err)
				return
			}
			slog.Info("Bitstream written", "path", path, "bits", sd.Bits(), "dropped_bytes", sd.Dropped())
		}()
		sink = sd
	}

	engine, err := oscillogic.NewEngine(cfg, sink)
	if err != nil {
		return err
	}

	name := "oscillogic"
	if path := c.String("patch"); path != "" {
		p := patch.New(engine)
		if err := p.ApplyFile(path); err != nil {
			return err
		}
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		slog.Info("Patch applied", "path", path, "calls", p.Applied())
	}

	if path := c.String("wav"); path != "" {
		rec, err := audio.CreateWAV(path, int(cfg.SampleRate))
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.Error("Failed to finish WAV file", "path", path, "error", err)
				return
			}
			slog.Info("WAV written", "path", path, "samples", rec.Samples())
		}()
		engine.AddMonitorSink(rec)
	}

	if path := c.String("link"); path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open link: %w", err)
		}
		defer f.Close()

		opts := []serial.LinkOption{serial.WithLogger(slog.Default().With("link", path))}
		if c.Bool("link-framed") {
			opts = append(opts, serial.WithFraming())
		}
		link := serial.NewLink(f, opts...)
		defer func() {
			slog.Info("Link closed", "path", path, "frames", link.Frames(), "bytes", link.BytesWritten())
		}()
		engine.AddMonitorSink(link)
	}

	if c.Bool("play") {
		ring := audio.NewRing(int(cfg.SampleRate * playbackBufferSeconds))
		player, err := audio.NewPlayer(int(cfg.SampleRate), ring)
		if err != nil {
			return err
		}
		defer player.Close()
		engine.AddMonitorSink(ring)
		player.Start()
	}

	var b backend.Backend
	ctx := context.Background()
	if headlessMode {
		snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), name)
		if err != nil {
			return err
		}
		b = headless.New(0, snapshots)

		// the terminal backend handles signals itself
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	} else {
		b = terminal.New()
	}

	frontend := oscillogic.NewFrontend(engine, b, oscillogic.FrontendConfig{
		Title:        fmt.Sprintf("oscillogic %s @ %.0f Hz", name, cfg.SampleRate),
		LogLevel:     level,
		SnapshotDir:  c.String("snapshot-dir"),
		SnapshotName: name,
	})

	slog.Info("Starting oscillogic",
		"headless", headlessMode,
		"sample_rate", cfg.SampleRate,
		"limiter", cfg.Limiter,
		"ticks", cfg.MaxTicks,
		"tick_period", timing.TickDuration(cfg.SampleRate))
	return frontend.Run(ctx)
}
