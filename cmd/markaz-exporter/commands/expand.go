package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/maltedev/markaz-exporter/internal/batch"
	"github.com/maltedev/markaz-exporter/internal/expand"
	"github.com/maltedev/markaz-exporter/internal/models"
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Expand saved product records into a Shopify import",
	Long: `Read product records written by "scrape --format json" (or yaml) and
expand them into Shopify import rows. Price adjustments and export
options are applied at this step, so one scrape can feed several
differently priced exports.`,
	RunE: runExpand,
}

func init() {
	rootCmd.AddCommand(expandCmd)

	expandCmd.Flags().StringP("input", "i", "", "records file, JSON or YAML (default: stdin as JSON)")
	addOutputFlags(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	input, _ := cmd.Flags().GetString("input")
	records, err := readRecords(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	adj, err := adjustmentsFromFlags(cmd)
	if err != nil {
		return err
	}

	store := batch.New(expand.New(cfg.Export))
	addRecords(store, records, adj, log)

	log.Info("expanded products", "records", len(records), "products", store.Len(), "rows", len(store.Rows()))
	return writeOutput(cmd, store)
}

// readRecords decodes records from path, or from stdin when path is empty.
// Files ending in .yaml or .yml are read as YAML.
func readRecords(stdin io.Reader, path string) ([]*models.ProductRecord, error) {
	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open records file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var records []*models.ProductRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode yaml records: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode json records: %w", err)
		}
	}
	return records, nil
}

// addRecords appends every successful record; the rest are skipped with a
// warning.
func addRecords(store *batch.Store, records []*models.ProductRecord, adj expand.Adjustments, log *slog.Logger) {
	for i, rec := range records {
		if _, err := store.Add(rec, adj); err != nil {
			status := ""
			if rec != nil {
				status = rec.Status
			}
			log.Warn("skipping record", "index", i, "status", status, "error", err)
		}
	}
}
