package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the payment form web server",
		Long: `Start the payment form web server.

The server renders the card form on /, the payment status page on
/status/{pid} and streams status changes over server-sent events.
It stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer closeApp(a)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.Run(ctx)
		},
	}
}
