// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package main

//go:generate go run gen-docs.go gen-docs --path ../../docs

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	geotracecmd "github.com/telekom/geotrace/cmd"
)

// generator writes the documentation of a command tree into a directory.
type generator func(root *cobra.Command, dir string) error

// generators maps the supported formats to their generator.
var generators = map[string]generator{
	"markdown": doc.GenMarkdownTree,
	"yaml":     doc.GenYamlTree,
	"rest":     doc.GenReSTTree,
	"man": func(root *cobra.Command, dir string) error {
		return doc.GenManTree(root, &doc.GenManHeader{Title: "GEOTRACE", Section: "1", Source: "geotrace"}, dir)
	},
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "gen-docs",
		Short: "Generates the CLI reference of geotrace",
	}
	rootCmd.AddCommand(NewCmdGenDocs())

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewCmdGenDocs creates the gen-docs command
func NewCmdGenDocs() *cobra.Command {
	var (
		path   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "gen-docs",
		Short: "Generate the CLI reference",
		Long:  `Generate the reference of the geotrace commands and their flags, including "run" and "trace"`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return genDocs(path, format)
		},
	}

	cmd.Flags().StringVar(&path, "path", "docs", "directory the reference is written to, created if missing")
	cmd.Flags().StringVar(&format, "format", "markdown", fmt.Sprintf("format of the reference, one of %s", strings.Join(formats(), "|")))
	return cmd
}

// genDocs writes the reference of the geotrace command tree in the given format.
func genDocs(path, format string) error {
	gen, ok := generators[format]
	if !ok {
		return fmt.Errorf("unsupported format %q, must be one of %s", format, strings.Join(formats(), "|"))
	}

	const dirMode = 0o755
	if err := os.MkdirAll(path, dirMode); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	root := geotracecmd.BuildCmd("")
	root.DisableAutoGenTag = true
	if err := gen(root, path); err != nil {
		return fmt.Errorf("failed to generate %s docs: %w", format, err)
	}
	return nil
}

func formats() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
