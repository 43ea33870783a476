package runtime

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// CommentKind distinguishes line comments from block comments.
type CommentKind string

const (
	LineComment  CommentKind = "line"
	BlockComment CommentKind = "block"
)

// RawComment is one comment span found in a source text, with its
// delimiters stripped and surrounding whitespace trimmed.
type RawComment struct {
	Text      string
	Kind      CommentKind
	StartLine int // 1-based
	StartByte int
}

var errNoGrammar = errors.New("rule-set has no grammar")

// Extract returns a lazy sequence of the comments in text, in order of
// appearance. Nothing is parsed until the sequence is ranged over, and
// every range parses afresh, so the sequence can be restarted. Stopping
// the range early stops the walk. A parse failure (only possible on
// context cancellation or a rule-set without a grammar) is yielded once as
// the error of the final element.
func Extract(ctx context.Context, text string, rules *RuleSet) iter.Seq2[RawComment, error] {
	return func(yield func(RawComment, error) bool) {
		if rules == nil || rules.grammar == nil {
			yield(RawComment{}, errNoGrammar)
			return
		}

		src := []byte(text)
		parser := sitter.NewParser()
		defer parser.Close()
		parser.SetLanguage(rules.grammar)

		tree, err := parser.ParseCtx(ctx, nil, src)
		if err != nil {
			yield(RawComment{}, fmt.Errorf("parse %s: %w", rules.Language, err))
			return
		}

		walkComments(tree.RootNode(), rules, src, yield)
	}
}

// walkComments visits node in pre-order, which is source order, yielding
// every comment node. Comment nodes are not descended into. Returns false
// once the consumer has asked to stop.
func walkComments(node *sitter.Node, rules *RuleSet, src []byte, yield func(RawComment, error) bool) bool {
	if rules.IsCommentNode(node.Type()) {
		text, kind := rules.Strip(node.Content(src))
		return yield(RawComment{
			Text:      text,
			Kind:      kind,
			StartLine: int(node.StartPoint().Row) + 1,
			StartByte: int(node.StartByte()),
		}, nil)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if !walkComments(child, rules, src, yield) {
			return false
		}
	}
	return true
}

// Strip removes the comment delimiters from raw and trims surrounding
// whitespace. Interior text, including the inner delimiters of nested
// block comments, is left untouched.
func (r *RuleSet) Strip(raw string) (string, CommentKind) {
	for _, d := range r.BlockDelimiters {
		if len(raw) >= len(d.Open)+len(d.Close) &&
			strings.HasPrefix(raw, d.Open) && strings.HasSuffix(raw, d.Close) {
			return strings.TrimSpace(raw[len(d.Open) : len(raw)-len(d.Close)]), BlockComment
		}
	}
	// Unterminated block comment running to end of input.
	for _, d := range r.BlockDelimiters {
		if strings.HasPrefix(raw, d.Open) {
			return strings.TrimSpace(raw[len(d.Open):]), BlockComment
		}
	}
	for _, d := range r.LineDelimiters {
		if strings.HasPrefix(raw, d) {
			return strings.TrimSpace(raw[len(d):]), LineComment
		}
	}
	return strings.TrimSpace(raw), LineComment
}
