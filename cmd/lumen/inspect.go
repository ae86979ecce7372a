package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumen-dev/lumen/pkg/inspect"
	"github.com/lumen-dev/lumen/pkg/reactive"
)

func inspectCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Run a demo graph with the HTTP inspector attached",
		Long: `Run a small demo reactive graph that updates on a timer, with the
inspector server attached. Useful for exercising devtools frontends
against live data.

Endpoints:

  GET /api/snapshot   live graph nodes
  GET /api/stats      cumulative engine counters
  GET /api/values     tracked demo observables
  GET /metrics        Prometheus exposition
  GET /ws             update stream, one frame per flush`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(addr, interval)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:6060", "Inspector listen address")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Demo update interval")

	return cmd
}

// runInspect owns the engine goroutine: the demo timer drives all writes
// here, while the inspector serves HTTP from its own goroutines off the
// captured snapshots.
func runInspect(addr string, interval time.Duration) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	rt := reactive.NewRuntime(reactive.WithLogger(logger))

	reg := inspect.NewRegistry()
	rt.AddHook(inspect.NewMetricsHook(rt))

	srv := inspect.NewServer(rt,
		inspect.WithObservables(reg),
		inspect.WithLogger(logger),
		inspect.WithCheckOrigin(func(*http.Request) bool { return true }),
	)
	rt.AddHook(srv)

	// Demo graph: a tick counter, a random-walk temperature with a
	// bounded history, and an averaged view over the history.
	ticks := reactive.NewIntSignal(rt, 0)
	ticks.WithLabel("ticks")
	temperature := reactive.NewSignal(rt, 20.0).WithLabel("temperature")
	history := reactive.NewSliceSignal[float64](rt, nil)
	history.WithLabel("history")

	average := reactive.NewMemo(rt, func() float64 {
		samples := history.Get()
		if len(samples) == 0 {
			return temperature.Get()
		}
		var sum float64
		for _, s := range samples {
			sum += s
		}
		return sum / float64(len(samples))
	}).WithLabel("average")

	reg.TrackSignal("ticks", ticks)
	reg.TrackSignal("temperature", temperature)
	reg.TrackComputed("average", average)

	rt.CreateEffect(func() reactive.Cleanup {
		logger.Debug("demo state",
			"ticks", ticks.Get(),
			"average", average.Get(),
		)
		return nil
	}, reactive.EffectName("demo-logger"))

	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	fmt.Printf("inspector listening on http://%s\n", addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rt.Batch(func() {
				ticks.Inc()
				temperature.Update(func(t float64) float64 {
					return t + (rand.Float64()-0.5)*0.8
				})
				history.Update(func(samples []float64) []float64 {
					next := append(append([]float64(nil), samples...), temperature.Peek())
					if len(next) > 60 {
						next = next[len(next)-60:]
					}
					return next
				})
			})
		case <-stop:
			fmt.Println("\nshutting down")
			return httpSrv.Close()
		case err := <-errCh:
			return err
		}
	}
}
