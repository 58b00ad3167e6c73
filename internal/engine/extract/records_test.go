package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `<html><head><title> Shop
  listing </title></head><body>
<ul>
  <li class="item"><h2 class="t">First   item</h2><span class="price">$1</span></li>
  <li class="item"><h2 class="t">Second</h2></li>
  <li class="other"><h2 class="t">Ignored</h2></li>
</ul>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRecords(t *testing.T) {
	doc := parse(t, listing)

	records := Records(doc, ".item", []Rule{
		{Name: "title", Selector: ".t"},
		{Name: "price", Selector: ".price"},
	})

	assert.Equal(t, []map[string]string{
		{"title": "First item", "price": "$1"},
		{"title": "Second", "price": ""},
	}, records)
}

func TestRecords_DuplicateNamesLastWins(t *testing.T) {
	doc := parse(t, listing)

	records := Records(doc, ".item", []Rule{
		{Name: "x", Selector: ".t"},
		{Name: "x", Selector: ".price"},
	})

	require.Len(t, records, 2)
	assert.Equal(t, "$1", records[0]["x"])
}

func TestRecords_EmptySelectorTakesRecordText(t *testing.T) {
	doc := parse(t, listing)

	records := Records(doc, ".item", []Rule{{Name: "", Selector: ""}})
	assert.Equal(t, "Second", records[1][""])
}

func TestRecords_NoMatches(t *testing.T) {
	records := Records(parse(t, listing), ".missing", nil)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestRulesFrom_KeepsOrder(t *testing.T) {
	rules := RulesFrom([]map[string]string{{"b": ".b"}, {"a": ".a"}, {"": ""}})
	assert.Equal(t, []Rule{{"b", ".b"}, {"a", ".a"}, {"", ""}}, rules)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(".item, li > a", []Rule{{"t", ".t"}, {"empty", ""}}))
	assert.Error(t, Validate("", nil))
	assert.Error(t, Validate("li[", nil))
	assert.Error(t, Validate("li", []Rule{{"bad", "a[href"}}))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Shop listing", Title(parse(t, listing)))
	assert.Equal(t, "", Title(nil))
}
