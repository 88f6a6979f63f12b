package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnerText(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "blocks break lines",
			html:     `<div><div>First</div><p>Second</p><span>inline</span> <b>text</b></div>`,
			expected: "First\nSecond\ninline text",
		},
		{
			name:     "br and whitespace",
			html:     "<div>  one\t two<br>three  \n\n </div>",
			expected: "one two\nthree",
		},
		{
			name:     "hidden elements dropped",
			html:     `<div>shown<script>hidden()</script><style>.x{}</style><noscript>no</noscript></div>`,
			expected: "shown",
		},
		{
			name:     "list items",
			html:     `<ul><li>a</li><li>b</li></ul>`,
			expected: "a\nb",
		},
		{
			name:     "nbsp collapses",
			html:     "<div>Rs.&nbsp;1,250</div>",
			expected: "Rs. 1,250",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, InnerText(doc.Find("body")))
		})
	}
}

func TestInnerTextEmptySelection(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<p>x</p>`))
	require.NoError(t, err)

	assert.Equal(t, "", InnerText(doc.Find("table")))
	assert.Equal(t, "", InnerText(nil))
	assert.Nil(t, Lines(""))
	assert.Equal(t, []string{"a", "b"}, Lines("a\nb"))
}

func TestFirstOfOrder(t *testing.T) {
	var calls []string
	mk := func(name string, ok bool) strategy[int] {
		return strategy[int]{name, func(*pageContext) (int, bool) {
			calls = append(calls, name)
			return len(name), ok
		}}
	}

	v, name, ok := firstOf(&pageContext{}, []strategy[int]{mk("a", false), mk("bb", true), mk("ccc", true)})
	assert.True(t, ok)
	assert.Equal(t, "bb", name)
	assert.Equal(t, 2, v)
	assert.Equal(t, []string{"a", "bb"}, calls)

	_, _, ok = firstOf(&pageContext{}, []strategy[int]{mk("x", false)})
	assert.False(t, ok)
}
