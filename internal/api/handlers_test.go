package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/markaz-exporter/internal/batch"
	"github.com/maltedev/markaz-exporter/internal/expand"
	"github.com/maltedev/markaz-exporter/internal/models"
	"github.com/maltedev/markaz-exporter/internal/parser"
	"github.com/maltedev/markaz-exporter/internal/render"
	"github.com/maltedev/markaz-exporter/internal/scraper"
)

const (
	productURL  = "https://www.markaz.app/explore/product/42"
	missingURL  = "https://www.markaz.app/explore/product/404"
	productPage = `<html><body><main>
		<a href="/explore/women">Women</a>
		<a href="/explore/women/kurtas">Kurtas</a>
		<div class="flex flex-col flex-wrap">
			<div><span class="ant-typography">SKU-42</span></div>
			<div><span class="ant-typography">Embroidered Kurta</span></div>
			<div>Rs. 2,450</div>
			<div>Chikankari work on cotton</div>
		</div>
		<div><span class="ant-typography">Size :</span>
			<button><span class="ant-typography">S</span></button>
			<button><span class="ant-typography">M</span></button>
		</div>
		<div class="gallery"><img src="https://cdn.markaz.app/k1.jpg"></div>
		</main></body></html>`
)

// MockPublisher is a mock for the scrape event publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishProductScraped(ctx context.Context, rec *models.ProductRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, publisher Publisher) (*httptest.Server, *batch.Store) {
	t.Helper()

	logger := testLogger()
	renderer := render.NewHTMLRenderer(map[string]string{
		productURL: productPage,
		missingURL: "<html><body><p>Not found</p></body></html>",
	})
	s := scraper.New(renderer, parser.New(parser.DefaultProfile(), logger), scraper.Options{
		AllowedHosts: []string{"markaz.app"},
	}, logger)

	store := batch.New(expand.New(expand.DefaultOptions()))
	h := NewHandlers(s, store, publisher, logger)

	srv := httptest.NewServer(NewRouter(h, RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/health")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["products"])
}

func TestScrapeEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name           string
		request        func() *http.Response
		expectedCode   int
		expectedStatus string
		expectedTitle  string
	}{
		{
			name:           "get with query",
			request:        func() *http.Response { return do(t, http.MethodGet, srv.URL+"/api/v1/scrape?url="+productURL) },
			expectedCode:   http.StatusOK,
			expectedStatus: models.StatusSuccess,
			expectedTitle:  "Embroidered Kurta",
		},
		{
			name: "post with body",
			request: func() *http.Response {
				return postJSON(t, srv.URL+"/api/v1/scrape", ScrapeRequest{URL: productURL})
			},
			expectedCode:   http.StatusOK,
			expectedStatus: models.StatusSuccess,
			expectedTitle:  "Embroidered Kurta",
		},
		{
			name:           "page without product",
			request:        func() *http.Response { return do(t, http.MethodGet, srv.URL+"/api/v1/scrape?url="+missingURL) },
			expectedCode:   http.StatusOK,
			expectedStatus: "Error: could not find product spans",
		},
		{
			name: "host outside allow list",
			request: func() *http.Response {
				return postJSON(t, srv.URL+"/api/v1/scrape", ScrapeRequest{URL: "https://example.com/p/1"})
			},
			expectedCode:   http.StatusOK,
			expectedStatus: "Error: host not allowed: example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.request()
			defer resp.Body.Close()

			require.Equal(t, tt.expectedCode, resp.StatusCode)
			var rec models.ProductRecord
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
			assert.Equal(t, tt.expectedStatus, rec.Status)
			assert.Equal(t, tt.expectedTitle, rec.Title)
		})
	}
}

func TestScrapeBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/scrape")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/scrape?url=not-a-url")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(srv.URL+"/api/v1/scrape", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductBatchFlow(t *testing.T) {
	srv, store := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/products", AddProductRequest{
		URL:                      productURL,
		VariantPriceAdjustment:   50,
		CompareAtPriceAdjustment: 500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var added AddProductResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	resp.Body.Close()
	assert.Equal(t, 0, added.Index)
	assert.Equal(t, 1, added.Count)

	resp = postJSON(t, srv.URL+"/api/v1/products", AddProductRequest{URL: missingURL})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 1, store.Len())

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/products")
	var list ListProductsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 2, list.Rows)
	assert.Equal(t, 50.0, list.Products[0].Adjustments.Variant)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "shopify_products.csv")
	records, err := csv.NewReader(resp.Body).ReadAll()
	resp.Body.Close()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, models.Columns, records[0])
	assert.Equal(t, "embroidered-kurta-sku-42", records[1][0])
	assert.Equal(t, "2500.00", records[1][20])
	assert.Equal(t, "2950.00", records[1][21])
	assert.Equal(t, "M", records[2][9])

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/export?format=json")
	var products []models.ProductRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	resp.Body.Close()
	require.Len(t, products, 1)
	assert.Equal(t, "SKU-42", products[0].BaseSKU)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/export?format=xlsx")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/products/3")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/products/abc")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/products/0")
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, store.Len())
}

func TestClearProducts(t *testing.T) {
	srv, store := newTestServer(t, nil)

	for i := 0; i < 2; i++ {
		resp := postJSON(t, srv.URL+"/api/v1/products", AddProductRequest{URL: productURL})
		resp.Body.Close()
	}
	require.Equal(t, 2, store.Len())

	resp := do(t, http.MethodDelete, srv.URL+"/api/v1/products")
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, store.Len())
}

func TestScrapePublishesEvents(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("PublishProductScraped", mock.Anything, mock.MatchedBy(func(rec *models.ProductRecord) bool {
		return rec.URL == productURL && rec.Succeeded()
	})).Return(nil).Once()
	publisher.On("PublishProductScraped", mock.Anything, mock.MatchedBy(func(rec *models.ProductRecord) bool {
		return rec.URL == missingURL
	})).Return(errors.New("redis down")).Once()

	srv, _ := newTestServer(t, publisher)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/scrape?url="+productURL)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/scrape?url="+missingURL)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	publisher.AssertExpectations(t)
}
