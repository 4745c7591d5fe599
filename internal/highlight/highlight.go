// Package highlight renders source code to syntax-highlighted HTML.
//
// The renderer is a pure function of its inputs: the same
// (code, language, style, lineNumbers) tuple always produces byte-identical
// output. Nothing here touches the database or any other shared state, so it
// is safe to call concurrently without coordination — and safe to memoize,
// which Cache does.
//
// WHY CHROMA?
// chroma is the Go port of Pygments: same lexer set, same style names
// ("friendly", "monokai", ...). We render with inline CSS and the standalone
// option so the output is a complete, self-contained HTML document the
// adapter can hand straight to a browser.
//
// The supported language and style lists are fixed at process start. They
// are whitelists, not the full chroma registry: serializer-level validation
// checks membership before anything reaches the service, and Render checks
// again itself. The double check is deliberate — the renderer must not trust
// its callers to have validated.
package highlight

import (
	"bytes"
	"sort"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/rashed/snippetbin/internal/apperror"
)

// DefaultStyle is applied when a snippet is created without an explicit style.
const DefaultStyle = "friendly"

// supportedLanguages is the fixed language whitelist. Each entry must be a
// registered chroma lexer name. Curated rather than "everything chroma
// knows" so the API surface stays stable across chroma upgrades.
var supportedLanguages = []string{
	"bash",
	"c",
	"cpp",
	"csharp",
	"css",
	"diff",
	"dockerfile",
	"go",
	"haskell",
	"html",
	"ini",
	"java",
	"javascript",
	"json",
	"kotlin",
	"lua",
	"makefile",
	"markdown",
	"perl",
	"php",
	"plaintext",
	"powershell",
	"python",
	"r",
	"ruby",
	"rust",
	"scala",
	"sql",
	"swift",
	"toml",
	"typescript",
	"xml",
	"yaml",
}

var (
	languageSet = toSet(supportedLanguages)
	styleNames  = sortedStyleNames()
	styleSet    = toSet(styleNames)
)

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func sortedStyleNames() []string {
	names := styles.Names()
	sort.Strings(names)
	return names
}

// Languages returns the supported language whitelist, sorted.
// Callers must not modify the returned slice.
func Languages() []string {
	return supportedLanguages
}

// Styles returns the supported style whitelist (every registered chroma
// style), sorted. Callers must not modify the returned slice.
func Styles() []string {
	return styleNames
}

// SupportedLanguage reports whether name is on the language whitelist.
func SupportedLanguage(name string) bool {
	_, ok := languageSet[name]
	return ok
}

// SupportedStyle reports whether name is on the style whitelist.
func SupportedStyle(name string) bool {
	_, ok := styleSet[name]
	return ok
}

// Renderer turns code into highlighted markup. Implementations must be
// deterministic and safe for concurrent use.
type Renderer interface {
	Render(code, language, style string, lineNumbers bool) ([]byte, error)
}

// ChromaRenderer is the real Renderer, backed by chroma. The zero value is
// ready to use; New exists for symmetry with the rest of the codebase.
type ChromaRenderer struct{}

// compile-time check that *ChromaRenderer implements Renderer
var _ Renderer = (*ChromaRenderer)(nil)

// New creates a ChromaRenderer.
func New() *ChromaRenderer {
	return &ChromaRenderer{}
}

// Render produces a complete HTML document with the code highlighted.
//
// Out-of-whitelist input fails with apperror.ErrUnsupported. Downstream of
// the serializer's validation this is unreachable, but the check stays:
// defence in depth against a future caller that skips validation.
func (r *ChromaRenderer) Render(code, language, style string, lineNumbers bool) ([]byte, error) {
	if !SupportedLanguage(language) {
		return nil, apperror.Unsupported("language", language)
	}
	if !SupportedStyle(style) {
		return nil, apperror.Unsupported("style", style)
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		// A whitelisted language with no registered lexer means the
		// whitelist and the chroma registry have drifted apart.
		return nil, apperror.Unsupported("language", language)
	}
	// Coalesce merges adjacent tokens of the same type — smaller output,
	// same rendering.
	lexer = chroma.Coalesce(lexer)

	// styles.Get falls back to a default style for unknown names, which
	// would silently mask whitelist drift — hence the registry lookup.
	chromaStyle := styles.Registry[style]
	if chromaStyle == nil {
		return nil, apperror.Unsupported("style", style)
	}

	formatter := html.New(
		html.Standalone(true),
		html.WithLineNumbers(lineNumbers),
	)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, apperror.Unsupported("language", language)
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, chromaStyle, iterator); err != nil {
		return nil, apperror.Unsupported("style", style)
	}

	return buf.Bytes(), nil
}
