// Package cli implements the tseg command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/tseg/internal/config"
	"github.com/Dicklesworthstone/tseg/internal/tui/theme"
)

var (
	cfgFile string
	cfg     *config.Config

	// Global JSON output flag - inherited by all subcommands
	jsonOutput bool

	// Global color control flag - inherited by all subcommands
	noColor bool

	debug   bool
	logFile string

	logger    = discardLogger()
	logCloser io.Closer

	// Build information - set via ldflags
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tseg",
	Short: "Annotate time segments of a media file in the terminal",
	Long: `tseg is a terminal annotator for temporal segments of a media file.

It shows an overview of the whole media, a zoomed window that follows
playback, and the segments of a project file as a band of coloured bars.
Segments can be selected, resized with the mouse and edited attribute by
attribute.

Quick Start:
  tseg open interview.yaml               # Annotate with the default settings
  tseg open interview.yaml --mode review # Skim the gaps between segments
  tseg segments interview.yaml --json    # List segments`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Handle --no-color flag by setting environment variable
		// This integrates with the theme.NoColorEnabled() check
		if noColor {
			os.Setenv("TSEG_NO_COLOR", "1")
		}

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded

		l, closer, err := newLogger(cfg.Log, debug, logFile)
		if err != nil {
			return err
		}
		logger, logCloser = l, closer
		slog.SetDefault(logger)

		theme.Init(cfg.Theme, cfg.Timeline.Palette)
		logger.Debug("command start", "command", cmd.CommandPath(), "config", cfgFile)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogger()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	closeLogger()
	if err != nil {
		// SilenceErrors is set so JSON mode controls its own output
		if !jsonOutput {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func closeLogger() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	logger = discardLogger()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/tseg/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (machine-readable)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level (to the log file, default ~/.local/state/tseg/tseg.log)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")

	rootCmd.AddCommand(
		newOpenCmd(),
		newSegmentsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}
