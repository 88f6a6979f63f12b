package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Headless)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.Equal(t, "en-PK", opts.Locale)
	assert.Equal(t, "Asia/Karachi", opts.TimezoneID)
}

func TestOptionsHeaders(t *testing.T) {
	opts := DefaultOptions()
	h := opts.headers()

	assert.Equal(t, opts.AcceptLanguage, h["Accept-Language"])
	assert.Contains(t, h["Accept"], "text/html")
	assert.NotContains(t, opts.ExtraHeaders, "Accept-Language")

	opts.AcceptLanguage = ""
	assert.NotContains(t, opts.headers(), "Accept-Language")
}
