package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snapstrip/photobooth/internal/config"
	"github.com/snapstrip/photobooth/internal/logging"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:          "photobooth",
	Short:        "A photo booth for the terminal and the kiosk browser",
	SilenceUsage: true,
	Long: `photobooth shoots a short sequence of filtered photos, lets you decorate
them with a template, stickers, captions and freehand drawing, and saves the
result as a PNG strip.

Run without a subcommand to use the booth in the terminal. Use "serve" to run
the kiosk server for a browser front end.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "photobooth.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig reads --config. A missing file at the default path means the
// built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("config") {
		return config.Load(configPath)
	}
	return config.LoadOrDefault(configPath)
}

func newLogger(file string) (*zap.Logger, error) {
	return logging.New(verbose, file)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
