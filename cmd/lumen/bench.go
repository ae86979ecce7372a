package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumen-dev/lumen/pkg/reactive"
)

// benchResult is one scenario's measurements.
type benchResult struct {
	Scenario    string  `json:"scenario"`
	Writes      int     `json:"writes"`
	Duration    string  `json:"duration"`
	WritesPerS  float64 `json:"writes_per_second"`
	Flushes     uint64  `json:"flushes"`
	Reactions   uint64  `json:"reactions_run"`
	Recomputes  uint64  `json:"recomputes"`
	NsPerWrite  int64   `json:"ns_per_write"`
	LiveNodes   int     `json:"live_nodes"`
	GraphDepth  int     `json:"graph_depth,omitempty"`
	GraphFanout int     `json:"graph_fanout,omitempty"`
}

func benchCmd() *cobra.Command {
	var (
		writes     int
		depth      int
		fanout     int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run engine micro-benchmarks",
		Long: `Run micro-benchmarks over three graph shapes:

  chain    one signal feeding a memo chain of the given depth
  fanout   one signal observed by the given number of effects
  diamond  one signal splitting into two memo arms joined by one effect

Each scenario performs the configured number of writes and reports
throughput and engine counters.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := []benchResult{
				benchChain(writes, depth),
				benchFanout(writes, fanout),
				benchDiamond(writes),
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			for _, r := range results {
				fmt.Printf("%-8s %d writes in %s (%.0f writes/s, %d ns/write)\n",
					r.Scenario, r.Writes, r.Duration, r.WritesPerS, r.NsPerWrite)
				fmt.Printf("         flushes=%d reactions=%d recomputes=%d nodes=%d\n",
					r.Flushes, r.Reactions, r.Recomputes, r.LiveNodes)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&writes, "writes", "n", 100000, "Writes per scenario")
	cmd.Flags().IntVar(&depth, "depth", 32, "Memo chain depth for the chain scenario")
	cmd.Flags().IntVar(&fanout, "fanout", 32, "Effect count for the fanout scenario")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit results as JSON")

	return cmd
}

// benchRuntime builds a runtime that logs nowhere, so benchmark numbers
// are not dominated by log formatting.
func benchRuntime() *reactive.Runtime {
	return reactive.NewRuntime(
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func benchChain(writes, depth int) benchResult {
	rt := benchRuntime()
	source := reactive.NewSignal(rt, 0)

	last := reactive.NewMemo(rt, func() int { return source.Get() + 1 })
	for i := 1; i < depth; i++ {
		prev := last
		last = reactive.NewMemo(rt, func() int { return prev.Get() + 1 })
	}
	rt.CreateEffect(func() reactive.Cleanup {
		_ = last.Get()
		return nil
	})

	start := time.Now()
	for i := 1; i <= writes; i++ {
		source.Set(i)
	}
	r := finishBench("chain", rt, writes, start)
	r.GraphDepth = depth
	return r
}

func benchFanout(writes, fanout int) benchResult {
	rt := benchRuntime()
	source := reactive.NewSignal(rt, 0)

	for i := 0; i < fanout; i++ {
		rt.CreateEffect(func() reactive.Cleanup {
			_ = source.Get()
			return nil
		})
	}

	start := time.Now()
	for i := 1; i <= writes; i++ {
		source.Set(i)
	}
	r := finishBench("fanout", rt, writes, start)
	r.GraphFanout = fanout
	return r
}

func benchDiamond(writes int) benchResult {
	rt := benchRuntime()
	source := reactive.NewSignal(rt, 0)
	left := reactive.NewMemo(rt, func() int { return source.Get() * 2 })
	right := reactive.NewMemo(rt, func() int { return source.Get() * 3 })
	rt.CreateEffect(func() reactive.Cleanup {
		_ = left.Get() + right.Get()
		return nil
	})

	start := time.Now()
	for i := 1; i <= writes; i++ {
		source.Set(i)
	}
	return finishBench("diamond", rt, writes, start)
}

func finishBench(scenario string, rt *reactive.Runtime, writes int, start time.Time) benchResult {
	elapsed := time.Since(start)
	stats := rt.Stats()
	return benchResult{
		Scenario:   scenario,
		Writes:     writes,
		Duration:   elapsed.Round(time.Millisecond).String(),
		WritesPerS: float64(writes) / elapsed.Seconds(),
		Flushes:    stats.Flushes,
		Reactions:  stats.ReactionsRun,
		Recomputes: stats.Recomputes,
		NsPerWrite: elapsed.Nanoseconds() / int64(writes),
		LiveNodes:  stats.LiveNodes,
	}
}
