package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eclipse-che4z/hlasm-analyzer-go/engine"
	"github.com/eclipse-che4z/hlasm-analyzer-go/library"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func newSymbolsCommand() *cobra.Command {
	var libraryDirs []string

	cmd := &cobra.Command{
		Use:   "symbols <file>",
		Short: "Dump the ordinary symbol table and macro-call counts an LSP client would see",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			text, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			uri := source.URI("file://" + path)
			opts := engine.Options{}
			for _, dir := range libraryDirs {
				opts.LibraryDirs = append(opts.LibraryDirs,
					library.NewDirectory(library.DiskLoader{}, source.URI("file://"+dir), library.Options{}, uri))
			}

			result, err := engine.Analyze(context.Background(), uri, string(text), opts)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tTYPE\tVALUE\tDEFINED AT")
			for _, sym := range result.Ctx.Symbols.All() {
				value := "(undefined)"
				if sym.Defined {
					value = sym.Value.String()
				}
				fmt.Fprintf(tw, "%s\t%c\t%s\t%s\n", sym.Name, sym.T, value, sym.DefLoc)
			}
			tw.Flush()

			macros := result.Index.MostCalledMacros(0)
			if len(macros) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nMACRO CALLS")
				mtw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(mtw, "NAME\tCALLS\tDEFINED AT")
				for _, m := range macros {
					fmt.Fprintf(mtw, "%s\t%d\t%s\n", m.Name, len(m.CallSites), m.DefLoc)
				}
				mtw.Flush()
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&libraryDirs, "library-dir", "L", nil, "directory searched for COPY/macro autocall members (repeatable)")

	return cmd
}
