package highlight

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rashed/snippetbin/internal/apperror"
)

func TestRender_ContainsCode(t *testing.T) {
	r := New()

	out, err := r.Render("print(1)", "python", "friendly", false)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "print", "rendered markup should contain the code text")
	assert.Contains(t, html, "<html", "output should be a complete HTML document")
}

func TestRender_LineNumbersToggle(t *testing.T) {
	r := New()
	code := "print(1)\nprint(2)\nprint(3)"

	with, err := r.Render(code, "python", "friendly", true)
	require.NoError(t, err)
	without, err := r.Render(code, "python", "friendly", false)
	require.NoError(t, err)

	// chroma emits line-number cells only when the option is on; "3" as a
	// bare number appears in the markup of the third line marker.
	assert.NotEqual(t, with, without, "line numbers must change the output")
	assert.True(t, len(with) > len(without), "line-number markup should add bytes")
}

func TestRender_Deterministic(t *testing.T) {
	r := New()

	first, err := r.Render("print(1)", "python", "friendly", true)
	require.NoError(t, err)
	second, err := r.Render("print(1)", "python", "friendly", true)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second), "repeated renders must be byte-identical")
}

func TestRender_UnsupportedLanguage(t *testing.T) {
	r := New()

	_, err := r.Render("x", "klingon", "friendly", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUnsupported))
}

func TestRender_UnsupportedStyle(t *testing.T) {
	r := New()

	_, err := r.Render("x", "python", "bogus", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUnsupported))
}

func TestWhitelists(t *testing.T) {
	assert.True(t, SupportedLanguage("python"))
	assert.True(t, SupportedLanguage("go"))
	assert.False(t, SupportedLanguage("klingon"))
	assert.False(t, SupportedLanguage(""))

	assert.True(t, SupportedStyle(DefaultStyle), "the default style must be on the whitelist")
	assert.False(t, SupportedStyle("bogus"))

	// Every whitelisted language must resolve to a renderable lexer —
	// otherwise validation would accept input the renderer rejects.
	r := New()
	for _, lang := range Languages() {
		if _, err := r.Render("x", lang, DefaultStyle, false); err != nil {
			t.Errorf("whitelisted language %q failed to render: %v", lang, err)
		}
	}
}

func TestStylesSorted(t *testing.T) {
	names := Styles()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		if strings.Compare(names[i-1], names[i]) > 0 {
			t.Fatalf("Styles() not sorted: %q before %q", names[i-1], names[i])
		}
	}
}
