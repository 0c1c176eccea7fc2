package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnginePrefersStructuredData(t *testing.T) {
	// Page carries both JSON-LD and block markup; structured data wins
	html := `<html><head>
<script type="application/ld+json">
{"@type":"Product","name":"Honda Civic from JSON-LD","url":"/listing/1","offers":{"price":12000}}
</script>
</head><body>
<div class="listing"><h2>Honda Civic from blocks</h2><a href="/ads/1">view</a><span class="price">$11,000</span></div>
</body></html>`

	engine := NewEngine(false)
	out := engine.Extract(html, testContext("Honda Civic"))

	assert.Len(t, out, 1)
	assert.Equal(t, "Honda Civic from JSON-LD", out[0].Title)
}

func TestEngineFallsThroughToCorrelation(t *testing.T) {
	// No JSON-LD, no recognizable blocks: the generic pairing still works
	html := `<html><body>
<p><a href="/item/1">Honda Civic hatchback</a> asking <b>$9,500</b></p>
</body></html>`

	engine := NewEngine(false)
	out := engine.Extract(html, testContext("Honda Civic"))

	assert.Len(t, out, 1)
	assert.Equal(t, "Honda Civic hatchback", out[0].Title)
	assert.Equal(t, int64(9500), out[0].Price)
}

func TestEngineRelevanceGate(t *testing.T) {
	// Extractable but irrelevant listings are dropped
	html := `<html><body>
<div class="listing"><h2>Dining table and six chairs</h2><a href="/ads/9">view</a><span class="price">$400</span></div>
</body></html>`

	engine := NewEngine(false)
	out := engine.Extract(html, testContext("Honda Civic"))

	assert.Empty(t, out)
}

func TestEngineDeduplicatesByCanonicalURL(t *testing.T) {
	// The same listing linked twice with tracking noise collapses to one
	html := `<html><body>
<a href="/item/1?utm_source=promo">Honda Civic Si sedan</a> <span>$14,000</span>
<a href="/item/1">Honda Civic Si sedan again</a> <span>$14,000</span>
</body></html>`

	engine := NewEngine(false)
	out := engine.Extract(html, testContext("Honda Civic"))

	assert.Len(t, out, 1)
	assert.Equal(t, "https://example.com/item/1", out[0].URL)
}

func TestEngineCapsCandidates(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, `<a href="/item/%d">Honda Civic number %d</a> <span>$%d</span>`, i, i, 6000+i)
	}
	b.WriteString("</body></html>")

	ectx := testContext("Honda Civic")
	ectx.MaxCandidates = 4

	engine := NewEngine(false)
	out := engine.Extract(b.String(), ectx)

	assert.Len(t, out, 4)
}

func TestEngineSyntheticDisabledByDefault(t *testing.T) {
	engine := NewEngine(false)
	out := engine.Extract("<html><body>nothing extractable</body></html>", testContext("Honda Civic"))

	assert.Empty(t, out)
}

func TestEngineSyntheticFallbackWhenEnabled(t *testing.T) {
	engine := NewEngine(true)
	out := engine.Extract("<html><body>nothing extractable</body></html>", testContext("Honda Civic"))

	assert.Len(t, out, 3)
	for _, c := range out {
		assert.True(t, c.Synthetic)
	}
}

func TestEngineSyntheticNotUsedWhenRealResultsExist(t *testing.T) {
	html := `<html><body>
<a href="/item/1">Honda Civic hatchback</a> <span>$9,500</span>
</body></html>`

	engine := NewEngine(true)
	out := engine.Extract(html, testContext("Honda Civic"))

	assert.Len(t, out, 1)
	assert.False(t, out[0].Synthetic)
}
