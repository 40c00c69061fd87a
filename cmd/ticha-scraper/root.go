package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Maclenn77/ticha/config"
	"github.com/Maclenn77/ticha/models"
)

const version = "1.0.0"

var (
	cfg     *config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "ticha-scraper",
	Short:   "Scraper for the Ticha digital archive of Colonial Zapotec manuscripts",
	Long:    "Extracts the manuscript inventory table and per-document transcriptions from ticha.haverford.edu, writing CSV or XLSX output.",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if verbose {
			cfg.Log.Level = "debug"
		}
		initLogger(cfg.Log)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// reportError already printed coded errors at the failure site;
		// anything else is a cobra-level error (bad flag, unknown command).
		var serr *models.ScrapeError
		if !errors.As(err, &serr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// reportError writes err to stderr as "CODE: message" and passes it back so
// Execute exits non-zero. Errors without a code become INTERNAL_ERROR.
func reportError(err error) error {
	var serr *models.ScrapeError
	if !errors.As(err, &serr) {
		serr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), nil)
	}
	fmt.Fprintln(os.Stderr, serr.Error())
	return serr
}

// printCitation writes the attribution block shown after a successful run.
func printCitation(cit models.Citation) {
	fmt.Println()
	fmt.Println("Source:  " + cit.Source)
	fmt.Println("Cite as: " + cit.Citation)
	fmt.Println("Project: " + cit.ProjectInfo)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
