package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	hlasmcontext "github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/engine"
	"github.com/eclipse-che4z/hlasm-analyzer-go/library"
	"github.com/eclipse-che4z/hlasm-analyzer-go/macrodbg"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
	"github.com/eclipse-che4z/hlasm-analyzer-go/tui"
)

func newDebugCommand() *cobra.Command {
	var libraryDirs []string

	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Interactively step a source member with the macro-level debugger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			text, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			uri := source.URI("file://" + path)
			opts := engine.Options{Arch: hlasmcontext.ArchZ15}
			for _, dir := range libraryDirs {
				opts.LibraryDirs = append(opts.LibraryDirs,
					library.NewDirectory(library.DiskLoader{}, source.URI("file://"+dir), library.Options{}, uri))
			}

			sess := engine.Prepare(uri, string(text), opts)
			dbg := macrodbg.NewDebugger(sess.Manager, sess.Ctx)

			return tui.NewTUI(sess, dbg, uri, string(text)).Run()
		},
	}

	cmd.Flags().StringArrayVarP(&libraryDirs, "library-dir", "L", nil, "directory searched for COPY/macro autocall members (repeatable)")

	return cmd
}
