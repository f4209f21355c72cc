package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalKeepsHTML(t *testing.T) {
	b, err := Marshal(map[string]string{"main_content": `<div id="a">&</div>`})
	require.NoError(t, err)
	assert.Equal(t, `{"main_content":"<div id=\"a\">&</div>"}`, string(b))

	b, err = MarshalIndent(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))
}

func TestUnescapeHTML(t *testing.T) {
	assert.Equal(t, `<p class="x">a & b</p>`, UnescapeHTML(`\u003cp class="x"\u003Ea \u0026 b\u003c/p\u003e`))
	assert.Equal(t, `\u00e9 \u0027`, UnescapeHTML(`\u00e9 \u0027`), "only the HTML trio is touched")
	assert.Equal(t, "plain", UnescapeHTML("plain"))
}

func TestUnmarshalFlex(t *testing.T) {
	type parts struct {
		MainContent string `json:"main_content"`
	}
	var direct parts
	require.NoError(t, UnmarshalFlex([]byte(`{"main_content":"<ul></ul>"}`), &direct))
	assert.Equal(t, "<ul></ul>", direct.MainContent)

	var wrapped parts
	require.NoError(t, UnmarshalFlex([]byte(`"{\"main_content\":\"\\\\u003cul\\\\u003e\"}"`), &wrapped))
	assert.Equal(t, "<ul>", wrapped.MainContent)

	var bad parts
	assert.Error(t, UnmarshalFlex([]byte(`{"main_content":`), &bad))
}
