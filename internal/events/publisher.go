package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/markaz-exporter/internal/models"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeProductScraped is published after every scrape, successful or not
	EventTypeProductScraped EventType = "PRODUCT_SCRAPED"

	DefaultStream = "stream:markaz_products"
	source        = "markaz-exporter"
)

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// ProductScrapedPayload is the body of a PRODUCT_SCRAPED event
type ProductScrapedPayload struct {
	EventID   string                `json:"event_id"`
	EventType string                `json:"event_type"`
	Timestamp time.Time             `json:"timestamp"`
	URL       string                `json:"url"`
	BaseSKU   string                `json:"base_sku,omitempty"`
	Title     string                `json:"title,omitempty"`
	Status    string                `json:"status"`
	Success   bool                  `json:"success"`
	Variants  int                   `json:"variants"`
	Images    int                   `json:"images"`
	Product   *models.ProductRecord `json:"product,omitempty"`
	Source    string                `json:"source"`
}

// NewProductScrapedPayload summarizes a record. The full record is only
// attached on success.
func NewProductScrapedPayload(rec *models.ProductRecord) *ProductScrapedPayload {
	p := &ProductScrapedPayload{
		URL:      rec.URL,
		BaseSKU:  rec.BaseSKU,
		Title:    rec.Title,
		Status:   rec.Status,
		Success:  rec.Succeeded(),
		Variants: len(rec.VariantValues),
		Images:   len(rec.ImageURLs),
	}
	if p.Success {
		p.Product = rec
	}
	return p
}

// Publisher appends product events to a Redis stream
type Publisher struct {
	redis  RedisClient
	stream string
	logger *slog.Logger
}

// NewPublisher creates a publisher writing to stream, or DefaultStream when empty
func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishProductScraped publishes a PRODUCT_SCRAPED event for rec
func (p *Publisher) PublishProductScraped(ctx context.Context, rec *models.ProductRecord) error {
	payload := NewProductScrapedPayload(rec)
	payload.EventID = uuid.New().String()
	payload.EventType = string(EventTypeProductScraped)
	payload.Timestamp = time.Now()
	payload.Source = source

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"type":       payload.EventType,
			"event_id":   payload.EventID,
			"timestamp":  fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
			"url":        payload.URL,
			"base_sku":   payload.BaseSKU,
			"success":    fmt.Sprintf("%t", payload.Success),
			"event_type": payload.EventType,
		},
	}

	id, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"stream_id", id,
		"url", payload.URL,
		"success", payload.Success,
	)

	return nil
}

// Close closes the underlying client
func (p *Publisher) Close() error {
	return p.redis.Close()
}
