// Package export writes expanded rows and product records to the formats
// the CLI and the API offer for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maltedev/markaz-exporter/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultFileName is the download name of the Shopify import file.
const DefaultFileName = "shopify_products.csv"

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON:
		return f, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/csv; charset=utf-8"
	}
}

func (f Format) FileName() string {
	if f == FormatCSV || f == "" {
		return DefaultFileName
	}
	return "shopify_products." + string(f)
}

// WriteCSV writes the header followed by every row, columns in import order.
func WriteCSV(w io.Writer, rows []models.FlatRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range rows {
		if err := cw.Write(rows[i].Values()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteRecords writes product records as JSON or YAML. CSV output needs
// expanded rows and goes through WriteCSV.
func WriteRecords(w io.Writer, format Format, records []*models.ProductRecord) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to close yaml encoder: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}
