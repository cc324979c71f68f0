// Command hlasmctl is the command-line front end for the analysis
// engine: analyze a source member from the shell, dump its symbol
// table, or start the HTTP/WebSocket session API a browser or editor
// extension attaches to. Grounded on the teacher's cmd/main.go (flag
// parsing, API-server mode with graceful shutdown on SIGINT/SIGTERM)
// generalized to cobra subcommands the way ajroetker-goat/main.go
// structures its own single cobra.Command with PersistentFlags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "hlasmctl",
		Short: "Analyze and serve HLASM source without an editor",
		Long: "hlasmctl drives the HLASM analysis engine from the command line: " +
			"run a full analysis pass over a source member and report its " +
			"diagnostics and statistics, dump the symbol table an LSP client " +
			"would see, or start the HTTP/WebSocket session API standalone.",
		Version:      fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
		SilenceUsage: true,
	}

	root.AddCommand(newAnalyzeCommand())
	root.AddCommand(newSymbolsCommand())
	root.AddCommand(newDebugCommand())
	root.AddCommand(newServeCommand())

	return root
}
