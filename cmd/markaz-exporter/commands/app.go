package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/markaz-exporter/internal/config"
	"github.com/maltedev/markaz-exporter/internal/events"
	"github.com/maltedev/markaz-exporter/internal/parser"
	"github.com/maltedev/markaz-exporter/internal/render"
	"github.com/maltedev/markaz-exporter/internal/scraper"
)

func newRenderer(cfg *config.Config, logger *slog.Logger) (render.Renderer, error) {
	switch cfg.Browser.Engine {
	case render.EngineChromedp:
		return render.NewChromedpRenderer(cfg.Browser.ChromedpOptions(), logger), nil
	case render.EngineStatic:
		return render.NewStaticRenderer(cfg.Browser.UserAgent, cfg.Browser.Timeout, logger), nil
	case render.EnginePlaywright:
		r, err := render.NewPlaywrightRenderer(cfg.Browser.PlaywrightOptions(), logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown render engine: %s", cfg.Browser.Engine)
	}
}

func newScraper(cfg *config.Config, r render.Renderer, logger *slog.Logger) *scraper.Scraper {
	p := parser.New(cfg.Site, logger)
	return scraper.New(r, p, cfg.Scraper.Options(), logger)
}

// newPublisher connects to Redis when an address is configured. A nil
// publisher means events are disabled.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*events.Publisher, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return events.NewPublisher(client, cfg.Redis.Stream, logger), nil
}
