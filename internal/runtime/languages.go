package runtime

import (
	"path/filepath"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/rust"
)

// extToLanguage maps file extensions (without the dot) to canonical
// language names. Matching is exact and case-sensitive: "C" is not "c".
var extToLanguage = map[string]string{
	"c":   "c",
	"h":   "c",
	"cpp": "cpp",
	"cxx": "cpp",
	"rs":  "rust",
}

// DefaultExtensions is the supported extension set used when a scan is not
// configured otherwise.
var DefaultExtensions = []string{"c", "cpp", "cxx", "h", "rs"}

// langToGrammar maps language names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"c":    c.GetLanguage(),
			"cpp":  cpp.GetLanguage(),
			"rust": rust.GetLanguage(),
		}
	})
}

// Extension returns the extension of path without the leading dot, or ""
// when there is none. A name that is only a dot-prefixed stem such as
// ".rs" has no extension.
func Extension(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return ext[1:]
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	lang, ok := extToLanguage[Extension(path)]
	return lang, ok
}

// ParserForLanguage returns the tree-sitter Language for a canonical language
// name. Returns (nil, false) if the language is not supported.
func ParserForLanguage(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[lang]
	return l, ok
}
