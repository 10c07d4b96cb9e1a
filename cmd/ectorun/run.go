package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChenZewei/ecto"
)

var (
	runThreads int
	runBound   int
	runTimeout time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run [demo]",
	Short: "Run one of the demo graphs to respawn-exhaustion",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		d, ok := demoByName(args[0])
		if !ok {
			return fmt.Errorf("unknown demo %q; see 'ectorun list'", args[0])
		}

		sched := ecto.NewScheduler()
		defer sched.Close() //nolint:errcheck

		_ = sched.OnCellError(func(_ context.Context, ev ecto.SchedulerEvent) error { //nolint:errcheck
			fmt.Printf("cell error: vertex=%s calls=%d err=%v\n", ev.Vertex, ev.Calls, ev.Err)
			return nil
		})
		_ = sched.OnVertexFinished(func(_ context.Context, ev ecto.SchedulerEvent) error { //nolint:errcheck
			fmt.Printf("vertex finished: vertex=%s calls=%d\n", ev.Vertex, ev.Calls)
			return nil
		})

		g, report := d.build()

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		start := time.Now()
		err := sched.Execute(ctx, g, runThreads, ecto.Bounded(runBound))
		elapsed := time.Since(start)

		fmt.Printf("\n%s finished in %s\n", d.name, elapsed)
		report()
		return err
	},
}

func init() {
	runCmd.Flags().IntVar(&runThreads, "threads", 4, "number of pool worker goroutines")
	runCmd.Flags().IntVar(&runBound, "bound", 10, "max calls per vertex (respawn bound)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Second, "run timeout")
}
