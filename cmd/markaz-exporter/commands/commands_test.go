package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/markaz-exporter/internal/batch"
	"github.com/maltedev/markaz-exporter/internal/config"
	"github.com/maltedev/markaz-exporter/internal/expand"
	"github.com/maltedev/markaz-exporter/internal/models"
	"github.com/maltedev/markaz-exporter/internal/render"
)

const savedPage = `<html><body><main>
	<a href="/explore/home">Home Decor</a>
	<div class="flex flex-col flex-wrap">
		<div><span class="ant-typography">CUSH-9</span></div>
		<div><span class="ant-typography">Velvet Cushion</span></div>
		<div>Rs. 899</div>
		<div>Hand stitched velvet cover</div>
	</div></main></body></html>`

func TestScrapeFromSavedHTML(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(page, []byte(savedPage), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"scrape",
		"--html", page,
		"-u", "https://www.markaz.app/explore/product/9",
		"--variant-adjustment", "101",
		"--log-level", "error",
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.Columns, records[0])
	assert.Equal(t, "velvet-cushion-cush-9", records[1][0])
	assert.Equal(t, "1000.00", records[1][20])
	assert.Equal(t, "Home Decor", strings.TrimSpace(records[1][6]))
}

func TestReadRecords(t *testing.T) {
	rec := models.ProductRecord{
		Title:         "Velvet Cushion",
		BaseSKU:       "CUSH-9",
		Price:         "899",
		OptionName:    models.OptionTitle,
		VariantValues: []string{models.DefaultVariant},
		Status:        models.StatusSuccess,
	}

	t.Run("json from stdin", func(t *testing.T) {
		data, err := json.Marshal([]models.ProductRecord{rec})
		require.NoError(t, err)

		records, err := readRecords(bytes.NewReader(data), "")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "CUSH-9", records[0].BaseSKU)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "records.yaml")
		content := "- title: Velvet Cushion\n  base_sku: CUSH-9\n  price: \"899\"\n  status: Success\n  option1_name: Title\n  variants: [Default Title]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		records, err := readRecords(nil, path)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Velvet Cushion", records[0].Title)
		assert.True(t, records[0].Succeeded())
	})

	t.Run("broken json", func(t *testing.T) {
		_, err := readRecords(strings.NewReader("[{"), "")
		assert.Error(t, err)
	})
}

func TestAddRecordsSkipsFailures(t *testing.T) {
	store := batch.New(expand.New(expand.DefaultOptions()))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	records := []*models.ProductRecord{
		{Title: "A", BaseSKU: "A1", Price: "10", OptionName: models.OptionTitle, VariantValues: []string{models.DefaultVariant}, Status: models.StatusSuccess},
		models.FailedRecord("https://www.markaz.app/x", "could not find product spans"),
		nil,
	}
	addRecords(store, records, expand.Adjustments{}, logger)

	assert.Equal(t, 1, store.Len())
}

func TestNewRenderer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()

	cfg.Browser.Engine = render.EngineStatic
	r, err := newRenderer(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &render.StaticRenderer{}, r)
	require.NoError(t, r.Close())

	cfg.Browser.Engine = "lynx"
	_, err = newRenderer(cfg, logger)
	assert.Error(t, err)
}

func TestNewPublisherDisabledWithoutAddress(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := newPublisher(t.Context(), config.Default(), logger)
	require.NoError(t, err)
	assert.Nil(t, p)
}
