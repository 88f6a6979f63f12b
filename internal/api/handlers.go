package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/maltedev/markaz-exporter/internal/batch"
	"github.com/maltedev/markaz-exporter/internal/expand"
	"github.com/maltedev/markaz-exporter/internal/export"
	"github.com/maltedev/markaz-exporter/internal/models"
)

// Scraper extracts one product page.
type Scraper interface {
	Scrape(ctx context.Context, url string) *models.ProductRecord
}

// Publisher is notified after every scrape.
type Publisher interface {
	PublishProductScraped(ctx context.Context, rec *models.ProductRecord) error
}

type Handlers struct {
	scraper   Scraper
	batch     *batch.Store
	publisher Publisher
	validate  *validator.Validate
	logger    *slog.Logger

	// scrapeMu keeps scrapes from overlapping on the shared renderer.
	scrapeMu sync.Mutex
}

// NewHandlers wires the API. publisher may be nil.
func NewHandlers(s Scraper, store *batch.Store, publisher Publisher, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper:   s,
		batch:     store,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger.With("component", "api"),
	}
}

// ScrapeRequest represents the request for a single product scrape
type ScrapeRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// AddProductRequest scrapes a product and appends it to the export batch
type AddProductRequest struct {
	URL                      string  `json:"url" validate:"required,url"`
	VariantPriceAdjustment   float64 `json:"variant_price_adjustment"`
	CompareAtPriceAdjustment float64 `json:"compare_at_price_adjustment"`
}

// AddProductResponse reports where the product landed in the batch
type AddProductResponse struct {
	Index   int                   `json:"index"`
	Count   int                   `json:"count"`
	Product *models.ProductRecord `json:"product"`
}

// ListProductsResponse represents the current export batch
type ListProductsResponse struct {
	Count    int           `json:"count"`
	Rows     int           `json:"rows"`
	Products []batch.Entry `json:"products"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"products": h.batch.Len(),
	})
}

// ScrapeQuery handles GET /scrape?url=
func (h *Handlers) ScrapeQuery(w http.ResponseWriter, r *http.Request) {
	h.scrapeAndRespond(w, r, ScrapeRequest{URL: r.URL.Query().Get("url")})
}

// Scrape handles POST /scrape
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.scrapeAndRespond(w, r, req)
}

// scrapeAndRespond always answers 200 once the request is valid; the
// record's status tells the caller whether extraction worked.
func (h *Handlers) scrapeAndRespond(w http.ResponseWriter, r *http.Request, req ScrapeRequest) {
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "a valid url is required")
		return
	}

	rec := h.scrape(r.Context(), req.URL)
	h.respondJSON(w, http.StatusOK, rec)
}

// AddProduct handles POST /products
func (h *Handlers) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "a valid url is required")
		return
	}

	rec := h.scrape(r.Context(), req.URL)

	index, err := h.batch.Add(rec, expand.Adjustments{
		Variant:   req.VariantPriceAdjustment,
		CompareAt: req.CompareAtPriceAdjustment,
	})
	if err != nil {
		h.logger.Warn("product not added", "url", req.URL, "status", rec.Status)
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   rec.Status,
			"product": rec,
		})
		return
	}

	h.respondJSON(w, http.StatusCreated, AddProductResponse{
		Index:   index,
		Count:   h.batch.Len(),
		Product: rec,
	})
}

// ListProducts handles GET /products
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	entries := h.batch.Entries()
	h.respondJSON(w, http.StatusOK, ListProductsResponse{
		Count:    len(entries),
		Rows:     len(h.batch.Rows()),
		Products: entries,
	})
}

// RemoveProduct handles DELETE /products/{index}
func (h *Handlers) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	if err := h.batch.Remove(index); err != nil {
		if errors.Is(err, batch.ErrIndexOutOfRange) {
			h.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to remove product", "index", index, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to remove product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearProducts handles DELETE /products
func (h *Handlers) ClearProducts(w http.ResponseWriter, r *http.Request) {
	h.batch.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /export?format=csv|json|yaml
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))

	if format == export.FormatCSV {
		err = export.WriteCSV(w, h.batch.Rows())
	} else {
		err = export.WriteRecords(w, format, h.batch.Products())
	}
	if err != nil {
		h.logger.Error("failed to write export", "format", format, "error", err)
	}
}

func (h *Handlers) scrape(ctx context.Context, url string) *models.ProductRecord {
	h.scrapeMu.Lock()
	rec := h.scraper.Scrape(ctx, url)
	h.scrapeMu.Unlock()

	if h.publisher != nil {
		if err := h.publisher.PublishProductScraped(ctx, rec); err != nil {
			h.logger.Warn("failed to publish scrape event", "url", url, "error", err)
		}
	}
	return rec
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
