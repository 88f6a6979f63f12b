// Package commands implements the CLI commands for markaz-exporter.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/maltedev/markaz-exporter/internal/config"
	"github.com/maltedev/markaz-exporter/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "markaz-exporter",
	Short: "Turn Markaz product pages into a Shopify product import CSV",
	Long: `markaz-exporter renders Markaz product pages, extracts the product
(title, price, description, categories, variants and images) and expands
each product into the rows of a Shopify bulk product import.

Examples:
  # Scrape two products into a CSV
  markaz-exporter scrape -u https://www.markaz.app/explore/product/123 \
      -u https://www.markaz.app/explore/product/456 -o shopify_products.csv

  # Run the extractor over a saved page
  markaz-exporter scrape --html page.html -u https://www.markaz.app/explore/product/123

  # Turn previously scraped records into a CSV with a markup
  markaz-exporter expand -i products.json --variant-adjustment 200

  # Serve the HTTP API
  markaz-exporter serve --port 8080`,
	SilenceUsage: true,
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"engine":         "browser.engine",
	"headless":       "browser.headless",
	"timeout":        "browser.timeout",
	"marker-timeout": "scraper.marker_timeout",
	"delay-min":      "scraper.delay_min",
	"delay-max":      "scraper.delay_max",
	"vendor":         "export.vendor",
	"tiered-markup":  "export.tiered_markup",
	"port":           "server.port",
	"redis-addr":     "redis.addr",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")
	flags.String("engine", "playwright", "render engine: playwright, chromedp, static")
	flags.Bool("headless", true, "run the browser headless")
	flags.Duration("timeout", 0, "page load timeout (default from config)")
	flags.String("redis-addr", "", "publish scrape events to this Redis server")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the configuration for cmd, with every flag the
// command knows about bound over file and environment values.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")

	var opts []config.Option
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			opts = append(opts, config.WithFlag(key, f))
		}
	}

	cfg, err := config.Load(cfgFile, opts...)
	if err != nil {
		logError("%v", err)
		return nil, nil, err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	return cfg, log, nil
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
