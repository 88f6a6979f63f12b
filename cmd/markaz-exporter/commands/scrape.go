package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maltedev/markaz-exporter/internal/batch"
	"github.com/maltedev/markaz-exporter/internal/expand"
	"github.com/maltedev/markaz-exporter/internal/export"
	"github.com/maltedev/markaz-exporter/internal/render"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape product pages and write a Shopify import",
	Long: `Scrape one or more Markaz product pages, one at a time, and write
the products as a Shopify product CSV (or as JSON/YAML records).

Only successfully scraped products are written. Failures are reported
on stderr with their status.`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()
	flags.StringSliceP("url", "u", nil, "product URL(s) to scrape (can be repeated)")
	flags.String("html", "", "extract from a saved HTML file instead of rendering (needs exactly one --url)")
	addOutputFlags(scrapeCmd)

	flags.Duration("marker-timeout", 0, "how long to wait for the product marker (default from config)")
	flags.Duration("delay-min", 0, "minimum pause between pages (default from config)")
	flags.Duration("delay-max", 0, "maximum pause between pages (default from config)")

	_ = scrapeCmd.MarkFlagRequired("url")
}

// addOutputFlags registers the flags shared by commands that write exports.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.StringP("format", "f", "csv", "output format: csv, json, yaml")
	flags.Float64("variant-adjustment", 0, "amount added to every variant price")
	flags.Float64("compare-adjustment", 0, "amount added to every compare-at price")
	flags.String("vendor", "", "vendor written on every product (default from config)")
	flags.Bool("tiered-markup", false, "add 500 below 2000 and 1000 from 2000 on top of the variant adjustment")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	urls, _ := cmd.Flags().GetStringSlice("url")
	htmlFile, _ := cmd.Flags().GetString("html")

	var renderer render.Renderer
	if htmlFile != "" {
		if len(urls) != 1 {
			return fmt.Errorf("--html needs exactly one --url, got %d", len(urls))
		}
		content, err := os.ReadFile(htmlFile)
		if err != nil {
			return fmt.Errorf("failed to read html file: %w", err)
		}
		renderer = render.NewHTMLRenderer(map[string]string{"": string(content)})
	} else {
		renderer, err = newRenderer(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize renderer: %w", err)
		}
	}
	defer renderer.Close()

	publisher, err := newPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}

	s := newScraper(cfg, renderer, log)
	limiter := cfg.Scraper.Limiter()

	records := s.ScrapeAll(ctx, urls, limiter.Wait)

	adj, err := adjustmentsFromFlags(cmd)
	if err != nil {
		return err
	}
	store := batch.New(expand.New(cfg.Export))

	for _, rec := range records {
		if publisher != nil {
			if err := publisher.PublishProductScraped(ctx, rec); err != nil {
				log.Warn("failed to publish scrape event", "url", rec.URL, "error", err)
			}
		}

		if _, err := store.Add(rec, adj); err != nil {
			logError("%s: %s", rec.URL, rec.Status)
			continue
		}
		for _, w := range rec.Warnings {
			log.Warn("partial extraction", "url", rec.URL, "warning", w)
		}
	}

	log.Info("scrape finished", "requested", len(urls), "succeeded", store.Len())

	if store.Len() == 0 {
		return fmt.Errorf("no product could be scraped")
	}
	return writeOutput(cmd, store)
}

func adjustmentsFromFlags(cmd *cobra.Command) (expand.Adjustments, error) {
	variant, err := cmd.Flags().GetFloat64("variant-adjustment")
	if err != nil {
		return expand.Adjustments{}, err
	}
	compareAt, err := cmd.Flags().GetFloat64("compare-adjustment")
	if err != nil {
		return expand.Adjustments{}, err
	}
	return expand.Adjustments{Variant: variant, CompareAt: compareAt}, nil
}

// writeOutput writes the batch in the requested format to --output or stdout.
func writeOutput(cmd *cobra.Command, store *batch.Store) (err error) {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		w = f
	}

	return writeBatch(w, format, store)
}

func writeBatch(w io.Writer, format export.Format, store *batch.Store) error {
	if format == export.FormatCSV {
		return export.WriteCSV(w, store.Rows())
	}
	return export.WriteRecords(w, format, store.Products())
}
