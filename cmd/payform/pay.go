package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/form"
	"github.com/spf13/cobra"
)

func payCmd(opts *rootOptions) *cobra.Command {
	var (
		values = map[string]*string{}
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Submit card details to the payment backend",
		Long: `Submit card details through the same form model the web page uses.

The card number and expiry are masked exactly as typed in the browser.
On success the status page path is printed; with --wait the payment
status is polled until it leaves the process state.

Example:
  payform pay --pan 4111111111111111 --expire 1225 --cvc 123 --cardholder "IVAN IVANOV" --wait`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer closeApp(a)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			f := a.NewForm()
			for _, field := range domain.FormFields {
				if err := f.Edit(field, *values[field]); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			pid, err := f.Submit(ctx)
			if err != nil {
				if errors.Is(err, domain.ErrValidationFailed) {
					for _, fe := range f.Errors() {
						fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Message)
					}
					return err
				}
				return fmt.Errorf("%s: %w", f.Errors().GetByField(domain.FieldPAN), err)
			}

			fmt.Fprintln(out, form.StatusPath(pid))
			if !wait {
				return nil
			}
			return watchStatus(ctx, a.Watcher, pid, out)
		},
	}

	for _, field := range domain.FormFields {
		values[field] = cmd.Flags().String(field, "", "card "+field)
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll the payment status after submit")

	return cmd
}
