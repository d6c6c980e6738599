package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/stencil-ml/stencil/autodiff"
	"github.com/stencil-ml/stencil/backend/cpu"
	"github.com/stencil-ml/stencil/internal/config"
	"github.com/stencil-ml/stencil/tensor"
)

func benchCmd() *cli.Command {
	var (
		size   int64
		runs   int64
		warmup int64
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time matmul and conv2d forward+backward on the CPU device",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "size",
				Aliases:     []string{"s"},
				Usage:       "square matrix dimension (conv input scales with it)",
				Value:       256,
				Destination: &size,
			},
			&cli.Int64Flag{
				Name:        "runs",
				Aliases:     []string{"n"},
				Usage:       "number of timed runs",
				Value:       5,
				Destination: &runs,
			},
			&cli.Int64Flag{
				Name:        "warmup",
				Usage:       "number of warmup runs",
				Value:       1,
				Destination: &warmup,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load config: %v", err), 1)
			}

			base := cpu.NewWithParallel(cfg.ParallelConfig())
			n := int(size)
			fmt.Printf("device: %s\n", base.Name())

			report("matmul", warmup, runs, func() {
				dev := autodiff.New(base)
				dev.Tape().StartRecording()
				a := tensor.Randn[float32](tensor.Shape{n, n}, dev)
				b := tensor.Randn[float32](tensor.Shape{n, n}, dev)
				autodiff.Backward(a.MatMul(b).Sum(), dev)
			})

			report("conv2d", warmup, runs, func() {
				dev := autodiff.New(base)
				dev.Tape().StartRecording()
				x := tensor.Randn[float32](tensor.Shape{1, 8, n / 4, n / 4}, dev)
				w := tensor.Randn[float32](tensor.Shape{8, 8, 3, 3}, dev)
				autodiff.Backward(x.Conv2D(w, [2]int{1, 1}, 1).Sum(), dev)
			})
			return nil
		},
	}
}

// report times f (forward + backward) and prints avg/best over the runs.
func report(name string, warmup, runs int64, f func()) {
	for i := int64(0); i < warmup; i++ {
		f()
	}

	var total, best time.Duration
	for i := int64(0); i < runs; i++ {
		start := time.Now()
		f()
		elapsed := time.Since(start)
		total += elapsed
		if best == 0 || elapsed < best {
			best = elapsed
		}
	}

	avg := total / time.Duration(runs)
	fmt.Printf("%-8s runs=%d avg=%v best=%v\n",
		name, runs, avg.Round(time.Microsecond), best.Round(time.Microsecond))
}
