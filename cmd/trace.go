// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/telekom/geotrace/internal/logger"
	"github.com/telekom/geotrace/internal/traceroute"
	"github.com/telekom/geotrace/pkg/enrich"
	"github.com/telekom/geotrace/pkg/geotrace"
	"gopkg.in/yaml.v3"
)

// Output formats of the trace command
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// NewCmdTrace creates a new trace command
func NewCmdTrace() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "trace <target>",
		Short: "Trace a target once",
		Long:  `Traces the network path to the target, geolocates its public hops and prints the result`,
		Args:  cobra.ExactArgs(1),
	}

	fl := pipelineFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text, json, yaml)")

	cmd.PreRunE = func(c *cobra.Command, _ []string) error {
		switch output {
		case outputText, outputJSON, outputYAML:
		default:
			return fmt.Errorf("unsupported output format %q", output)
		}
		return fl.bind(c)
	}
	cmd.RunE = trace(&output)
	return cmd
}

// trace runs the enrichment pipeline once and prints the result
func trace(output *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := logger.NewContextWithLogger(cmd.Context())
		defer cancel()
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		target, err := traceroute.NormalizeTarget(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err = cfg.Trace.Validate(); err != nil {
			return fmt.Errorf("error while validating the trace config: %w", err)
		}
		if err = cfg.Geo.Validate(); err != nil {
			return fmt.Errorf("error while validating the geo config: %w", err)
		}

		pipeline, _, err := geotrace.NewPipeline(cfg)
		if err != nil {
			return err
		}

		res, err := pipeline.Enrich(ctx, target)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), *output, res)
	}
}

// printResult writes the result in the requested format
func printResult(w io.Writer, output string, res *enrich.Result) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	default:
		return printText(w, res)
	}
}

// Colors of the hop locations in the text output.
// They are disabled if the output is no terminal.
var (
	locatedColor = color.New(color.FgGreen)
	unknownColor = color.New(color.FgYellow)
	privateColor = color.New(color.Faint)
)

func printText(w io.Writer, res *enrich.Result) error {
	if _, err := fmt.Fprintf(w, "trace to %s\n", res.Target); err != nil {
		return err
	}
	for _, h := range res.Hops {
		location := privateColor.Sprint("private")
		switch {
		case h.Located():
			location = locatedColor.Sprintf("%s, %s (%s, %s)", h.City, h.CountryCode,
				strconv.FormatFloat(*h.Latitude, 'f', 4, 64),
				strconv.FormatFloat(*h.Longitude, 'f', 4, 64))
		case !h.IsPrivate:
			location = unknownColor.Sprint("unknown")
		}
		if _, err := fmt.Fprintf(w, "%s  %s\n", h.String(), location); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d hops, %d public, %d geolocated in %s\n",
		res.Stats.TotalHops, res.Stats.PublicHops, res.Stats.GeolocatedHops, res.Stats.Elapsed.Round(time.Millisecond))
	return err
}
