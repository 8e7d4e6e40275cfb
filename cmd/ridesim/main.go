package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"backend-ridecoach/internal/advisor"
	"backend-ridecoach/internal/config"
	"backend-ridecoach/internal/export"
	"backend-ridecoach/internal/recorder"
	"backend-ridecoach/internal/replay"
	"backend-ridecoach/internal/ride"
)

type options struct {
	input      string
	speedup    float64
	every      int
	gpxOut     string
	fitOut     string
	advisorURL string
	apiKey     string
	timeout    time.Duration
}

func main() {
	cfg := config.Load()

	var opts options
	flag.StringVar(&opts.input, "i", "", "GPX file to replay")
	flag.Float64Var(&opts.speedup, "speedup", 10, "Replay speed multiplier")
	flag.IntVar(&opts.every, "every", 10, "Print live stats every N heartbeats (0 disables)")
	flag.StringVar(&opts.gpxOut, "gpx", "", "Write the recorded ride as GPX")
	flag.StringVar(&opts.fitOut, "fit", "", "Write the recorded ride as a FIT activity")
	flag.StringVar(&opts.advisorURL, "advisor", cfg.AdvisorURL, "Advisory service URL (empty skips feedback)")
	flag.DurationVar(&opts.timeout, "advisor-timeout", cfg.AdvisorTimeout, "Advisory request timeout")
	opts.apiKey = cfg.AdvisorAPIKey

	flag.Usage = func() {
		fmt.Printf("ridesim - replay a GPX track through the ride recorder\n\n")
		fmt.Printf("usage: ridesim -i /path/to/ride.gpx [-speedup 20] [-gpx out.gpx] [-fit out.fit]\n\n")
		fmt.Printf("options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if opts.input == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ridesim: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.speedup <= 0 {
		opts.speedup = 1
	}
	source, err := replay.Load(opts.input, opts.speedup)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.input, err)
	}
	fmt.Fprintf(out, "replaying %d points from %s (%s at %gx)\n",
		len(source.Points), filepath.Base(opts.input), source.Duration().Round(time.Millisecond), opts.speedup)

	agg := ride.NewAggregator(time.Now)
	ticks := 0
	rec := recorder.New(agg, source, recorder.Ticker(time.Duration(float64(time.Second)/opts.speedup)), recorder.Hooks{
		OnTick: func(stats ride.Stats) {
			ticks++
			if opts.every > 0 && ticks%opts.every == 0 {
				fmt.Fprintln(out, statsLine(stats))
			}
		},
		OnSourceEnd: func(ride.Stats) {
			fmt.Fprintln(out, "end of track")
		},
	})
	if err := rec.Start(ctx); err != nil {
		return err
	}

	select {
	case <-rec.Done():
	case <-ctx.Done():
	}
	// the loop may exit on ctx before the select sees it
	rec.Stop()
	if ctx.Err() != nil {
		fmt.Fprintln(out, "interrupted")
	}

	snap := agg.Snapshot()
	fmt.Fprintf(out, "finished: %s, %d points\n", statsLine(snap.Stats), len(snap.Route))

	if opts.gpxOut != "" {
		name := strings.TrimSuffix(filepath.Base(opts.input), filepath.Ext(opts.input))
		data, err := export.GPX(name, snap)
		if err != nil {
			return fmt.Errorf("gpx export: %w", err)
		}
		if err := os.WriteFile(opts.gpxOut, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", opts.gpxOut)
	}

	if opts.fitOut != "" {
		f, err := os.Create(opts.fitOut)
		if err != nil {
			return err
		}
		if err := export.FIT(snap, f); err != nil {
			f.Close()
			return fmt.Errorf("fit export: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", opts.fitOut)
	}

	if opts.advisorURL != "" {
		return advise(ctx, opts, snap, out)
	}
	return nil
}

func advise(ctx context.Context, opts options, snap ride.Snapshot, out io.Writer) error {
	req, err := advisor.BuildRequest(snap)
	if err != nil {
		return err
	}
	insight, err := advisor.NewClient(opts.advisorURL, opts.apiKey, opts.timeout).Advise(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\n%s\n", insight.Title, insight.Summary)
	for i, r := range insight.Recommendations {
		fmt.Fprintf(out, "  %d. %s\n", i+1, r)
	}
	return nil
}

func statsLine(stats ride.Stats) string {
	return fmt.Sprintf("%s  %.2f km  avg %.1f km/h  max %.1f km/h  +%.0f m",
		ride.FormatDuration(stats.DurationSec),
		stats.TotalDistanceM/1000,
		ride.KmH(stats.AvgSpeedMps()),
		ride.KmH(stats.MaxSpeedMps),
		stats.ElevationGainM)
}
