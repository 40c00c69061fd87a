package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Maclenn77/ticha/citation"
	"github.com/Maclenn77/ticha/models"
	"github.com/Maclenn77/ticha/sink"
	"github.com/Maclenn77/ticha/textscrape"
)

var textsCmd = &cobra.Command{
	Use:   "texts",
	Short: "Scrape document texts for a previously scraped manuscripts file",
	Long: `Fetch the page behind every document link in a manuscripts CSV and
extract its metadata, transcription, interlinear and modern Spanish
sections into a second CSV.

Documents that fail to fetch are recorded with an error column; the run
continues.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		inPath, _ := cmd.Flags().GetString("input")
		outPath, _ := cmd.Flags().GetString("output")
		rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")
		maxDocs, _ := cmd.Flags().GetInt("max-docs")
		format, _ := cmd.Flags().GetString("format")

		if format != textscrape.FormatText && format != textscrape.FormatMarkdown {
			return reportError(models.NewScrapeError(
				models.ErrCodeInvalidInput,
				fmt.Sprintf("unknown format %q: want text or markdown", format),
				nil,
			))
		}

		records, err := sink.ReadManuscripts(inPath)
		if err != nil {
			return reportError(err)
		}

		ts := textscrape.New(cfg.HTTP, textscrape.Options{
			SiteURL:   cfg.Scrape.SiteURL,
			RateLimit: time.Duration(rateLimit * float64(time.Second)),
			MaxDocs:   maxDocs,
			Format:    format,
		})

		docs, stats, err := ts.ScrapeAll(ctx, records)
		if err != nil {
			return reportError(err)
		}

		if err := textscrape.WriteCSV(outPath, docs); err != nil {
			return reportError(err)
		}

		fmt.Printf("Scraped %d of %d documents to %s (%d failed)\n",
			stats.Scraped, stats.Total, outPath, stats.Failed)
		fmt.Printf("Sections: %d transcriptions, %d interlinear, %d modern Spanish\n",
			stats.WithTranscription, stats.WithInterlinear, stats.WithModernSpanish)
		printCitation(citation.Info(cfg.Scrape.SiteURL))
		return nil
	},
}

func init() {
	textsCmd.Flags().StringP("input", "i", "", "manuscripts CSV produced by the manuscripts command (required)")
	textsCmd.Flags().StringP("output", "o", "ticha_texts.csv", "output CSV file")
	textsCmd.Flags().Float64P("rate-limit", "r", 2.0, "minimum seconds between page loads")
	textsCmd.Flags().Int("max-docs", 0, "stop after this many documents (0 = all)")
	textsCmd.Flags().String("format", textscrape.FormatText, "section format: text or markdown")
	_ = textsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(textsCmd)
}
