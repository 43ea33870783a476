package runtime

import (
	"errors"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupportedSyntax is returned when no comment rule-set is registered
// for a file's type.
var ErrUnsupportedSyntax = errors.New("unsupported syntax")

// BlockDelimiter is an opening/closing pair for block comments.
type BlockDelimiter struct {
	Open  string
	Close string
}

// RuleSet describes how one language writes comments. The grammar finds
// comment spans (so string literals and the like are never mistaken for
// comments); the delimiters are then stripped from each span.
type RuleSet struct {
	Language string

	// LineDelimiters and BlockDelimiters are tried longest first.
	LineDelimiters  []string
	BlockDelimiters []BlockDelimiter

	grammar      *sitter.Language
	commentKinds map[string]bool
}

// IsCommentNode reports whether a syntax node kind is a comment in this language.
func (r *RuleSet) IsCommentNode(kind string) bool {
	return r.commentKinds[kind]
}

// Grammar returns the tree-sitter grammar backing this rule-set.
func (r *RuleSet) Grammar() *sitter.Language {
	return r.grammar
}

var cFamilyLine = []string{"//"}
var cFamilyBlock = []BlockDelimiter{{Open: "/*", Close: "*/"}}

// ruleDefs is the per-language table; grammars are attached lazily.
var ruleDefs = map[string]RuleSet{
	"c": {
		Language:        "c",
		LineDelimiters:  cFamilyLine,
		BlockDelimiters: cFamilyBlock,
		commentKinds:    map[string]bool{"comment": true},
	},
	"cpp": {
		Language:        "cpp",
		LineDelimiters:  cFamilyLine,
		BlockDelimiters: cFamilyBlock,
		commentKinds:    map[string]bool{"comment": true},
	},
	"rust": {
		Language:       "rust",
		LineDelimiters: []string{"///", "//!", "//"},
		BlockDelimiters: []BlockDelimiter{
			{Open: "/**", Close: "*/"},
			{Open: "/*!", Close: "*/"},
			{Open: "/*", Close: "*/"},
		},
		// The grammar matches nested block comments as one node.
		commentKinds: map[string]bool{"line_comment": true, "block_comment": true},
	},
}

// RulesFor returns the comment rule-set for path, or ErrUnsupportedSyntax
// (wrapped with the path) when its type has none.
func RulesFor(path string) (*RuleSet, error) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSyntax, path)
	}
	return RulesForLanguage(lang)
}

// RulesForLanguage returns the comment rule-set for a canonical language name.
func RulesForLanguage(lang string) (*RuleSet, error) {
	def, ok := ruleDefs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: language %q", ErrUnsupportedSyntax, lang)
	}
	grammar, ok := ParserForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("%w: no grammar for %q", ErrUnsupportedSyntax, lang)
	}
	rs := def
	rs.grammar = grammar
	return &rs, nil
}

// SupportedLanguages returns the languages that have a rule-set, sorted.
func SupportedLanguages() []string {
	langs := make([]string, 0, len(ruleDefs))
	for lang := range ruleDefs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
