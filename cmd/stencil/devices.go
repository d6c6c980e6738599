package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/stencil-ml/stencil/internal/config"
)

func devicesCmd() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List the compute devices available on this machine",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load config: %v", err), 1)
			}

			par := cfg.ParallelConfig()
			fmt.Printf("cpu      workers=%d min_chunk=%d enabled=%v\n",
				par.NumWorkers, par.MinChunkSize, par.Enabled)

			if name, ok := probeGPU(cfg.BufferPool.MaxPerClass); ok {
				fmt.Printf("webgpu   adapter=%s\n", name)
			} else {
				fmt.Printf("webgpu   unavailable (%s/%s)\n", runtime.GOOS, runtime.GOARCH)
			}

			if cfg.Device != "" {
				fmt.Printf("\npreferred device: %s (%s)\n", cfg.Device, config.EnvConfigPath)
			}
			return nil
		},
	}
}
