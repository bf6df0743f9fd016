package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/Dhoini/payform/internal/domain"
	"github.com/Dhoini/payform/internal/status"
	"github.com/spf13/cobra"
)

var (
	errPaymentNotSucceeded = errors.New("payment did not succeed")
	errWatchInterrupted    = errors.New("status watch interrupted")
)

func statusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <pid>",
		Short: "Poll a payment until it leaves the process state",
		Long: `Poll the backend for a payment status and print every change.

Exits with status 1 when the payment fails, the status is unknown or
the backend cannot be reached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer closeApp(a)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return watchStatus(ctx, a.Watcher, args[0], cmd.OutOrStdout())
		},
	}
}

// watchStatus печатает каждое изменение статуса. Ошибка возвращается,
// если платеж не завершился успешно.
func watchStatus(ctx context.Context, watcher *status.Watcher, pid string, out io.Writer) error {
	final := watcher.Watch(ctx, pid, func(v status.View) {
		fmt.Fprintln(out, formatView(v))
	})

	switch {
	case final.Polling():
		return errWatchInterrupted
	case final.Phase == status.PhaseReceived && final.Status == domain.PaymentStatusOK:
		return nil
	default:
		return fmt.Errorf("%w: %s", errPaymentNotSucceeded, final.Text())
	}
}

func formatView(v status.View) string {
	if v.Phase == status.PhaseError {
		return fmt.Sprintf("[error] %s", v.Text())
	}
	return fmt.Sprintf("[%s] %s", v.Status, v.Text())
}
