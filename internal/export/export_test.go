package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/maltedev/markaz-exporter/internal/expand"
	"github.com/maltedev/markaz-exporter/internal/models"
)

func sampleRecord() *models.ProductRecord {
	return &models.ProductRecord{
		Title:           "Red Shirt",
		BaseSKU:         "ABC123",
		Price:           "1,500",
		Description:     "Soft cotton, \"premium\"\n• Breathable",
		ImageURLs:       []string{"https://cdn/x.jpg"},
		BreadcrumbItems: []string{"Fashion", "Shirts"},
		OptionName:      models.OptionSize,
		VariantValues:   []string{"M", "L"},
		URL:             "https://www.markaz.app/explore/product/1",
		Status:          models.StatusSuccess,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{" JSON ", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xlsx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "shopify_products.csv", FormatCSV.FileName())
	assert.Equal(t, "shopify_products.json", FormatJSON.FileName())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.True(t, strings.HasPrefix(FormatCSV.ContentType(), "text/csv"))
}

func TestWriteCSV(t *testing.T) {
	rows := expand.New(expand.DefaultOptions()).Expand(sampleRecord(), expand.Adjustments{Variant: 100}, 0)
	require.Len(t, rows, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.Columns, records[0])
	for _, rec := range records {
		assert.Len(t, rec, len(models.Columns))
	}

	assert.Equal(t, "red-shirt-abc123", records[1][0])
	assert.Equal(t, "Red Shirt", records[1][1])
	assert.Contains(t, records[1][2], "&#34;premium&#34;")
	assert.Equal(t, "1600.00", records[1][20])
	assert.Equal(t, "ABC123-L", records[2][14])
	assert.Equal(t, "", records[2][1])
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Handle,Title,Body (HTML),Vendor"))
	assert.True(t, strings.HasSuffix(lines[0], "Compare At Price / International,Status"))
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSVPropagatesWriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriteRecords(t *testing.T) {
	records := []*models.ProductRecord{sampleRecord()}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteRecords(&buf, FormatJSON, records))

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, "Red Shirt", decoded[0]["title"])
		assert.Equal(t, "Size", decoded[0]["option1_name"])
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteRecords(&buf, FormatYAML, records))

		var decoded []map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, "ABC123", decoded[0]["base_sku"])
		assert.Equal(t, []any{"M", "L"}, decoded[0]["variants"])
	})

	t.Run("csv is rejected", func(t *testing.T) {
		assert.ErrorIs(t, WriteRecords(&bytes.Buffer{}, FormatCSV, records), ErrUnknownFormat)
	})
}
