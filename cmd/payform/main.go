package main

import (
	"fmt"
	"os"

	"github.com/Dhoini/payform/internal/app"
	"github.com/Dhoini/payform/internal/config"
	"github.com/Dhoini/payform/pkg/logger"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions общие флаги всех команд
type rootOptions struct {
	envFile   string
	configDir string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "payform",
		Short:         "Payment form front service and payment status tools",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded outside production")
	rootCmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "directory with optional config.yml")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(statusCmd(opts))
	rootCmd.AddCommand(payCmd(opts))

	return rootCmd
}

// newApp загружает конфигурацию и собирает приложение.
// Логи идут в stderr, чтобы stdout оставался для вывода команд.
func (o *rootOptions) newApp() (*app.App, error) {
	cfg, err := config.LoadConfig(o.envFile, o.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewWithOutput(logger.ParseLevel(cfg.Log.Level), os.Stderr, cfg.IsProduction())

	a, err := app.NewApp(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return a, nil
}

// closeApp освобождает ресурсы приложения и сбрасывает буфер логгера
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Errorw("Failed to close application", "error", err)
	}
	_ = a.Logger.Sync()
}
