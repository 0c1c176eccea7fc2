package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testContext(term string) Context {
	return Context{
		Source: SourceRef{
			Name: "testmarket",
			URL:  "https://example.com/search?q=honda",
			Tier: 2,
		},
		Term:          term,
		MaxCandidates: 10,
	}
}

func TestStructuredDataProduct(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{"@type":"Product","name":"2019 Honda Civic Si","url":"/listing/1",
 "image":"https://example.com/img/1.jpg",
 "offers":{"@type":"Offer","price":"18500","priceCurrency":"USD"}}
</script>
</head><body></body></html>`

	s := &StructuredDataStrategy{}
	out := s.Extract(html, testContext("Honda Civic"))

	assert.Len(t, out, 1)
	assert.Equal(t, "2019 Honda Civic Si", out[0].Title)
	assert.Equal(t, int64(18500), out[0].Price)
	assert.Equal(t, "https://example.com/listing/1", out[0].URL)
	assert.Equal(t, "https://example.com/img/1.jpg", out[0].ImageURL)
	assert.Equal(t, "testmarket", out[0].SourceName)
	assert.Equal(t, 2, out[0].Tier)
}

func TestStructuredDataItemList(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{"@type":"ItemList","itemListElement":[
 {"item":{"@type":"Product","name":"Honda Civic EX","url":"/listing/2","offers":{"price":9500}}},
 {"item":{"@type":"Product","name":"Honda Civic LX","url":"/listing/3","offers":{"price":"7,200"}}}
]}
</script>
</head><body></body></html>`

	s := &StructuredDataStrategy{}
	out := s.Extract(html, testContext("Honda Civic"))

	assert.Len(t, out, 2)
	assert.Equal(t, int64(9500), out[0].Price)
	assert.Equal(t, int64(7200), out[1].Price)
}

func TestStructuredDataGraph(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{"@graph":[
 {"@type":"WebPage","name":"Search results"},
 {"@type":["Product","Car"],"name":"Honda Civic Type R","url":"https://example.com/listing/4",
  "offers":[{"price":"32000"}]}
]}
</script>
</head><body></body></html>`

	s := &StructuredDataStrategy{}
	out := s.Extract(html, testContext("Honda Civic"))

	assert.Len(t, out, 1)
	assert.Equal(t, "Honda Civic Type R", out[0].Title)
	assert.Equal(t, int64(32000), out[0].Price)
}

func TestStructuredDataSkipsUnpriced(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">
{"@type":"Product","name":"Honda Civic, price on request","url":"/listing/5"}
</script>
</head><body></body></html>`

	s := &StructuredDataStrategy{}
	out := s.Extract(html, testContext("Honda Civic"))

	assert.Empty(t, out)
}

func TestStructuredDataIgnoresMalformedJSON(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{not json at all</script>
</head><body></body></html>`

	s := &StructuredDataStrategy{}
	assert.Empty(t, s.Extract(html, testContext("Honda Civic")))
}

func TestStructuredDataNoScripts(t *testing.T) {
	s := &StructuredDataStrategy{}
	assert.Empty(t, s.Extract("<html><body><p>nothing here</p></body></html>", testContext("Honda Civic")))
}
