package endpoints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<script>
const stacUrl = 'https://example.org/stac/search';
fetch(stacUrl + '?collections=quakes');
fetch("https://api.example.org/v1/data?x=1")
axios.get('https://svc.example.org/service/items')
xhr.open('GET', "/api/local")
fetch('https://example.org/stac/search')
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png')
fetch('./relative.json')
</script>`

func TestExtract(t *testing.T) {
	got := Extract(page)
	urls := make([]string, 0, len(got))
	for _, e := range got {
		urls = append(urls, e.URL)
	}
	assert.Equal(t, []string{
		"https://example.org/stac/search",
		"https://api.example.org/v1/data?x=1",
		"https://svc.example.org/service/items",
		"/api/local",
	}, urls)

	require.Len(t, got, 4)
	assert.Equal(t, 2, got[0].Line, "first occurrence line is kept")
	assert.Equal(t, "xhr", got[3].Kind)
}

func TestExtractNothing(t *testing.T) {
	assert.Empty(t, Extract(`<div>no scripts</div>`))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "https://example.org/stac/search", Normalize("HTTPS://Example.ORG/stac/search/?collections=a#top"))
	assert.Equal(t, "https://example.org/items", Normalize("https://example.org/items${query}"))
}

func TestCovered(t *testing.T) {
	probed := []string{"https://example.org/stac/search", "https://api.example.org/v1"}
	assert.True(t, Covered("https://example.org/stac/search?collections=x", probed))
	assert.True(t, Covered("https://api.example.org/v1/data", probed))
	assert.False(t, Covered("https://api.example.org/v10", probed), "prefix must end at a path boundary")
	assert.False(t, Covered("/api/local", probed))
	assert.False(t, Covered("https://other.org/api", nil))
}
