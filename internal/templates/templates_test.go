package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batpad/ll-html/internal/endpoints"
)

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"earthquake map":                     KindMap,
		"Dashboard of flood statistics":      KindDashboard,
		"map and chart of wildfire trends":   KindMap,
		"a page about the weather in Lisbon": KindComprehensive,
		"mapping":                            KindComprehensive,
	}
	for in, want := range cases {
		assert.Equal(t, want, Classify(in), in)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("generic")
	require.NoError(t, err)
	assert.Equal(t, KindComprehensive, k)
	_, err = ParseKind("spreadsheet")
	assert.Error(t, err)
}

func TestRenderEmbedsPartsAndLibraries(t *testing.T) {
	cat := Default()
	tpl, ok := cat.Get(KindMap)
	require.True(t, ok)

	html, err := Render(tpl, Parts{Title: "Quakes", MainContent: `<ul id="events"></ul>`, CustomJS: "hideLoading();", CustomCSS: ".x{}"})
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Quakes</title>")
	assert.Contains(t, html, `<ul id="events"></ul>`)
	assert.Contains(t, html, leafletJS)
	assert.Contains(t, html, fontAwesomeCSS)
	assert.Contains(t, html, "function addMarker(")
	for _, id := range tpl.RequiredIDs {
		assert.Contains(t, html, `id="`+id+`"`)
	}
	assert.Less(t, strings.Index(html, leafletJS), strings.Index(html, "hideLoading();"), "libraries load before custom script")
}

func TestUtilitiesHaveNoDataEndpoints(t *testing.T) {
	for _, k := range Default().Kinds() {
		tpl, _ := Default().Get(k)
		assert.Empty(t, endpoints.Extract(tpl.UtilitySource()+tpl.Init), k)
	}
}

func TestGetFallsBackToComprehensive(t *testing.T) {
	tpl, ok := Default().Get(Kind("nope"))
	require.True(t, ok)
	assert.Equal(t, KindComprehensive, tpl.Kind)
}
