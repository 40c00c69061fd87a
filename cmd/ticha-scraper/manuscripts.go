package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Maclenn77/ticha/citation"
	"github.com/Maclenn77/ticha/driver"
	"github.com/Maclenn77/ticha/fingerprint"
	"github.com/Maclenn77/ticha/models"
	"github.com/Maclenn77/ticha/scraper"
	"github.com/Maclenn77/ticha/sink"
	"github.com/Maclenn77/ticha/webhook"
)

var manuscriptsCmd = &cobra.Command{
	Use:   "manuscripts",
	Short: "Scrape the handwritten manuscripts table",
	Long: `Scrape the full manuscripts inventory table from the Ticha archive.

The run is all-or-nothing: any failure aborts without writing output.
The output format follows the file extension (.csv or .xlsx).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		outPath, _ := cmd.Flags().GetString("output")
		rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")
		engine, _ := cmd.Flags().GetString("engine")
		noHeadless, _ := cmd.Flags().GetBool("no-headless")
		webhookURL, _ := cmd.Flags().GetString("webhook-url")

		if engine == "" {
			engine = cfg.Scrape.Engine
		}
		if noHeadless {
			cfg.Browser.Headless = false
		}
		if webhookURL != "" {
			cfg.Webhook.URL = webhookURL
		}
		runID := uuid.NewString()

		drv, err := driver.ForEngine(engine, cfg)
		if err != nil {
			return reportError(err)
		}

		sc := scraper.New(drv, scraper.Options{
			TargetURL:  cfg.Scrape.BaseURL,
			RateLimit:  time.Duration(rateLimit * float64(time.Second)),
			RetryDelay: cfg.Scrape.RetryDelay,
		})

		res, err := sc.Scrape(ctx)
		if err != nil {
			notifyFailure(cfg.Scrape.BaseURL, runID, err)
			return reportError(err)
		}

		if err := sink.ForPath(outPath).Write(outPath, res.Records); err != nil {
			notifyFailure(cfg.Scrape.BaseURL, runID, err)
			return reportError(err)
		}

		cit := citation.Info(res.SourceURL)
		notifySuccess(runID, res, cit)

		fmt.Printf("Scraped %d manuscripts to %s in %s\n",
			len(res.Records), outPath, res.Duration.Round(time.Millisecond))
		fmt.Printf("Fingerprint: %s\n", fingerprint.Hex(res.Fingerprint))
		printCitation(cit)
		return nil
	},
}

func init() {
	manuscriptsCmd.Flags().StringP("output", "o", "ticha_manuscripts.csv", "output file (.csv or .xlsx)")
	manuscriptsCmd.Flags().Float64P("rate-limit", "r", 2.0, "minimum seconds between page loads")
	manuscriptsCmd.Flags().String("engine", "", "session engine: browser or http (default from config)")
	manuscriptsCmd.Flags().Bool("no-headless", false, "show the browser window (browser engine only)")
	manuscriptsCmd.Flags().String("webhook-url", "", "deliver a completion event to this URL")
	rootCmd.AddCommand(manuscriptsCmd)
}

// notifySuccess delivers a scrape.completed event when a webhook URL is
// configured. Delivery failures are logged, not fatal: the data is already
// on disk.
func notifySuccess(runID string, res *models.ResultSet, cit models.Citation) {
	if cfg.Webhook.URL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Webhook.Timeout)
	defer cancel()
	if err := webhook.Deliver(ctx, cfg.Webhook, webhook.Completed(runID, res, cit)); err != nil {
		slog.Warn("webhook delivery failed", "error", err)
	}
}

// notifyFailure delivers a scrape.failed event when a webhook URL is
// configured.
func notifyFailure(sourceURL, runID string, scrapeErr error) {
	if cfg.Webhook.URL == "" {
		return
	}
	var serr *models.ScrapeError
	if !errors.As(scrapeErr, &serr) {
		serr = models.NewScrapeError(models.ErrCodeInternal, scrapeErr.Error(), nil)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Webhook.Timeout)
	defer cancel()
	if err := webhook.Deliver(ctx, cfg.Webhook, webhook.Failed(runID, sourceURL, serr)); err != nil {
		slog.Warn("webhook delivery failed", "error", err)
	}
}
