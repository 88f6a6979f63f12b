// Package render provides the page rendering capability the extractor runs
// on: navigate to a URL, wait for the page to settle, wait for a marker and
// snapshot the resulting DOM.
package render

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRenderTimeout = errors.New("render timeout")
	ErrNavigation    = errors.New("navigation error")
	ErrPageClosed    = errors.New("page closed")
)

// Page is one rendered document. Callers must Close it.
type Page interface {
	// WaitForSelector blocks until selector matches an element or the
	// timeout elapses, returning ErrRenderTimeout in the latter case.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
	URL() string
	Close() error
}

type Renderer interface {
	Render(ctx context.Context, url string) (Page, error)
	Close() error
}

// Engine names accepted by configuration.
const (
	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"
	EngineStatic     = "static"
)
