package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eclipse-che4z/hlasm-analyzer-go/analysisapi"
)

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/WebSocket session API",
		Long: "serve starts analysisapi's session API standalone, for a browser " +
			"or editor extension that cannot embed the Go engine directly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := analysisapi.NewServer(port)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			var shutdownOnce sync.Once
			shutdown := func() {
				shutdownOnce.Do(func() {
					fmt.Fprintln(cmd.OutOrStdout(), "\nshutting down analysisapi server...")
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					if err := server.Shutdown(ctx); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "error during shutdown: %v\n", err)
					}
				})
			}

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					errCh <- err
					return
				}
				errCh <- nil
			}()

			select {
			case <-sigChan:
				shutdown()
				return <-errCh
			case err := <-errCh:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (127.0.0.1 only)")

	return cmd
}
