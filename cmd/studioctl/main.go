// Package main provides studioctl, an operator CLI over the studio store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/archstudio-backend/config"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/catalog"
	cronjob "github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/cron"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/store"
	"github.com/GoSim-25-26J-441/archstudio-backend/pkg/logger"
)

// app is the state shared by every subcommand.
type app struct {
	backend cronjob.Backend
	studio  *service.Studio
	device  string
	asJSON  bool
	closeFn func()
}

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A nil backend is opened from the environment.
func newRootCmd(backend cronjob.Backend) *cobra.Command {
	a := &app{backend: backend, closeFn: func() {}}

	rootCmd := &cobra.Command{
		Use:          "studioctl",
		Short:        "Inspect and maintain architecture studio projects",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.backend == nil {
				if err := a.open(cmd.Context()); err != nil {
					return err
				}
			}
			a.studio = service.NewStudio(a.backend, catalog.Default())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.studio != nil {
				a.studio.Close()
			}
			a.closeFn()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.device, "device", "d", "", "Device id whose projects to operate on")
	rootCmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(
		historyCmd(a),
		currentCmd(a),
		resetCmd(a),
		devicesCmd(a),
		sweepCmd(a),
	)
	return rootCmd
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(&logger.Config{Level: "warn", Format: cfg.App.LogFormat})

	if cfg.Redis.Backend == "memory" {
		return fmt.Errorf("studioctl needs STORE_BACKEND=redis; the memory store lives inside the api process")
	}

	client, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	a.backend = store.NewRedisStore(client, cfg.Redis.KeyPrefix)
	a.closeFn = func() { client.Close() }
	return nil
}

func (a *app) requireDevice() error {
	if a.device == "" {
		return fmt.Errorf("--device is required")
	}
	return nil
}
