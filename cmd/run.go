// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/telekom/geotrace/internal/logger"
	"github.com/telekom/geotrace/pkg/config"
	"github.com/telekom/geotrace/pkg/geotrace"
)

// NewCmdRun creates a new run command
func NewCmdRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run geotrace",
		Long:  `Serves the trace API and geolocates the paths of the requested targets`,
	}

	fl := pipelineFlags(cmd)
	cmd.Flags().String("name", "", "DNS name of the geotrace instance")
	cmd.Flags().String("apiAddress", config.DefaultAddress, "api: The address the server is listening on")
	cmd.Flags().Bool("telemetryEnabled", false, "telemetry: export the traces of geotrace")
	cmd.Flags().String("telemetryExporter", "", "telemetry: exporter of the traces (http, grpc, stdout)")
	cmd.Flags().String("telemetryUrl", "", "telemetry: url of the collector the traces are exported to")
	fl = append(fl,
		flag{key: "name", name: "name"},
		flag{key: "api.address", name: "apiAddress"},
		flag{key: "telemetry.enabled", name: "telemetryEnabled"},
		flag{key: "telemetry.exporter", name: "telemetryExporter"},
		flag{key: "telemetry.url", name: "telemetryUrl"},
	)

	cmd.PreRunE = func(c *cobra.Command, _ []string) error {
		return fl.bind(c)
	}
	cmd.RunE = run()
	return cmd
}

// run is the entry point to start geotrace
func run() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := logger.NewContextWithLogger(cmd.Context())
		log := logger.FromContext(ctx)
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err = cfg.Validate(ctx); err != nil {
			return fmt.Errorf("error while validating the config: %w", err)
		}

		g, err := geotrace.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to create geotrace: %w", err)
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.InfoContext(ctx, "Running geotrace", "address", cfg.Api.ListeningAddress)
		err = g.Run(ctx)
		if errors.Is(err, geotrace.ErrFinalShutdown) && ctx.Err() != nil {
			log.InfoContext(ctx, "Signal received, geotrace stopped")
			return nil
		}
		return err
	}
}
