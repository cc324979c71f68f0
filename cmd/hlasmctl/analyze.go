package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	hlasmcontext "github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/engine"
	"github.com/eclipse-che4z/hlasm-analyzer-go/library"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		libraryDirs []string
		arch        string
		maxStmts    int64
		verbose     bool
		statsFile   string
		statsFormat string
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run a full analysis pass over a source member and report its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			text, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			uri := source.URI("file://" + path)
			opts := engine.Options{
				Arch:          hlasmcontext.Architecture(strings.ToUpper(arch)),
				MaxStatements: maxStmts,
			}
			for _, dir := range libraryDirs {
				opts.LibraryDirs = append(opts.LibraryDirs,
					library.NewDirectory(library.DiskLoader{}, source.URI("file://"+dir), library.Options{}, uri))
			}

			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "analyzing %s (%d bytes)\n", path, len(text))
			}

			result, err := engine.Analyze(context.Background(), uri, string(text), opts)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			reportDiagnostics(cmd, result.Diagnostics)

			if statsFile != "" {
				if err := writeStats(result, statsFile, statsFormat); err != nil {
					return err
				}
			} else if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), result.Stats.String())
			}

			if hasError(result.Diagnostics) {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&libraryDirs, "library-dir", "L", nil, "directory searched for COPY/macro autocall members (repeatable)")
	cmd.Flags().StringVar(&arch, "arch", string(hlasmcontext.ArchZ15), "system architecture (Z15, Z14, ESA, ...)")
	cmd.Flags().Int64Var(&maxStmts, "max-statements", 0, "statement-count ceiling before halting with a runaway-assembly diagnostic (0 keeps the engine default)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print statistics summary after analysis")
	cmd.Flags().StringVar(&statsFile, "stats-file", "", "write statistics to this file instead of stdout")
	cmd.Flags().StringVar(&statsFormat, "stats-format", "json", "statistics format when --stats-file is set (json, csv, html)")

	return cmd
}

func reportDiagnostics(cmd *cobra.Command, diags []diag.Diagnostic) {
	out := cmd.OutOrStdout()
	if len(diags) == 0 {
		fmt.Fprintln(out, "no diagnostics")
		return
	}
	for _, d := range diags {
		fmt.Fprintf(out, "%s:%d:%d: %s: %s [%s]\n",
			d.URI, d.Range.Start.Line+1, d.Range.Start.Column+1, d.Severity, d.Message, d.Code)
	}
}

func hasError(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.SeverityError {
			return true
		}
	}
	return false
}

func writeStats(result *engine.Result, path, format string) error {
	f, err := os.Create(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("create stats file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "csv":
		return result.Stats.ExportCSV(f)
	case "html":
		return result.Stats.ExportHTML(f)
	default:
		return result.Stats.ExportJSON(f)
	}
}
