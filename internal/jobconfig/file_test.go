package jobconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/law-makers/scrapejob/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_YAML(t *testing.T) {
	data := []byte(`
url: https://shop.test/list
root_selector: .product-cell
fields:
  - name: title
    selector: h2
  - name: price
    selector: .price
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test/list", cfg.URL)
	assert.Equal(t, ".product-cell", cfg.RootSelector)
	assert.Equal(t, []models.FieldExtractor{
		{Name: "title", Selector: "h2"},
		{Name: "price", Selector: ".price"},
	}, cfg.Fields)
}

func TestParse_JSONWithSelectorAlias(t *testing.T) {
	cfg, err := Parse([]byte(`{"url":"https://x.test","selector":".item"}`))
	require.NoError(t, err)

	assert.Equal(t, ".item", cfg.RootSelector)
	assert.Equal(t, []models.FieldExtractor{{}}, cfg.Fields)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("fields: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: https://x.test\nroot_selector: li\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "li", cfg.RootSelector)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLint(t *testing.T) {
	cfg := models.JobConfig{
		Fields: []models.FieldExtractor{
			{Name: "title", Selector: "h2"},
			{Name: "", Selector: ".x"},
			{Name: "title", Selector: ""},
		},
	}

	var msgs []string
	for _, issue := range Lint(cfg) {
		msgs = append(msgs, issue.String())
	}

	assert.Equal(t, []string{
		"url is empty",
		"root selector is empty",
		"field 1: name is empty",
		`field 2: name "title" duplicates field 0`,
		"field 2: selector is empty",
	}, msgs)
}

func TestLint_CleanConfig(t *testing.T) {
	cfg := models.JobConfig{
		URL:          "https://x.test",
		RootSelector: ".item",
		Fields:       []models.FieldExtractor{{Name: "title", Selector: ".t"}},
	}
	assert.Empty(t, Lint(cfg))
}
