// Package tokenizer shields substrings that must survive translation
// byte-for-byte. It replaces HTML-like tags, placeholder syntaxes, and
// user-supplied protected terms with opaque tokens before text is sent to
// the translator, and restores the originals afterwards.
package tokenizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Protection patterns. All of them are matched against the pristine input
// text; overlapping matches are resolved by position and then by the order
// the patterns are listed here.
var (
	// <b>, </p>, <a href="x">: the whole tag including attributes.
	htmlTagPattern = regexp.MustCompile(`</?[a-zA-Z][^<>]*>`)
	// {msg}, { email }, {0}, {user.name}, {items[0]}. The inner braces of
	// {{x}} also match here, but the mustache match starts one byte earlier
	// and wins the overlap.
	curlyPattern = regexp.MustCompile(`\{[ \t]*[a-zA-Z0-9_.\[\]]+[ \t]*\}`)
	// %s, %d: percent followed by one word character.
	percentPattern = regexp.MustCompile(`%\w`)
	// {{name}}, {{ name }}.
	mustachePattern = regexp.MustCompile(`\{\{[ \t]*[a-zA-Z0-9_.]+[ \t]*\}\}`)
	// :id, :userName.
	colonPattern = regexp.MustCompile(`:[a-zA-Z_][a-zA-Z0-9_]*`)
)

// TokenMap records, for one leaf, which original substring each generated
// token stands for. It lives only from tokenize until that leaf's
// translated text has been detokenized.
type TokenMap map[string]string

// Tokenizer replaces protected substrings with opaque tokens. The compiled
// patterns are owned by the instance; construct once and reuse.
type Tokenizer struct {
	termPatterns []*regexp.Regexp
}

// New builds a Tokenizer protecting the given literal terms. Each term is
// matched case-sensitively as a whole word.
func New(protectedTerms []string) (*Tokenizer, error) {
	t := &Tokenizer{}
	for _, term := range protectedTerms {
		if term == "" {
			continue
		}
		p, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile protected term %q: %w", term, err)
		}
		t.termPatterns = append(t.termPatterns, p)
	}
	return t, nil
}

// span is one protected region found in the pristine input. rank is the
// position of the pattern that produced it in the pattern list; it breaks
// ties between matches starting at the same byte.
type span struct {
	start, end int
	rank       int
}

// Tokenize replaces every protected substring in s with a fresh token and
// returns the shielded text plus the map needed to undo it. Token indices
// are scoped to this single call, so tokens are never shared across leaves.
//
// Every pattern is matched against the original text, never against text
// that already contains tokens. Otherwise a token's word characters would
// bleed into neighbouring matches: a term directly inside a tag pair loses
// its word boundaries, and %\w happily matches the leading underscore of a
// token. Overlapping matches are dropped in favour of the one that starts
// first, so a tag swallows any placeholder inside its attributes and a
// mustache beats the curly match on its inner braces.
func (t *Tokenizer) Tokenize(s string) (string, TokenMap) {
	tokens := make(TokenMap)

	patterns := []*regexp.Regexp{
		htmlTagPattern,
		curlyPattern,
		percentPattern,
		mustachePattern,
		colonPattern,
	}
	patterns = append(patterns, t.termPatterns...)

	var spans []span
	for rank, p := range patterns {
		for _, loc := range p.FindAllStringIndex(s, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1], rank: rank})
		}
	}
	if len(spans) == 0 {
		return s, tokens
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		if spans[i].rank != spans[j].rank {
			return spans[i].rank < spans[j].rank
		}
		return spans[i].end > spans[j].end
	})

	kept := spans[:0]
	lastEnd := 0
	for _, m := range spans {
		if m.start < lastEnd {
			continue
		}
		kept = append(kept, m)
		lastEnd = m.end
	}

	// Assign token ids in text order. An id whose literal form already
	// occurs in the input is skipped, so detokenizing can never rewrite
	// text the caller actually wrote.
	next := 0
	ids := make([]string, len(kept))
	for i, m := range kept {
		for {
			id := fmt.Sprintf("__T%d__", next)
			next++
			if !strings.Contains(s, id) {
				ids[i] = id
				break
			}
		}
		tokens[ids[i]] = s[m.start:m.end]
	}

	// Splice back to front so earlier offsets stay valid.
	out := s
	for i := len(kept) - 1; i >= 0; i-- {
		out = out[:kept[i].start] + ids[i] + out[kept[i].end:]
	}
	return out, tokens
}

// Detokenize restores every token occurrence in s from its map. Tokens are
// processed longest identifier first so that a token whose text is a prefix
// of another's can never cause a partial replacement.
func Detokenize(s string, tokens TokenMap) string {
	if len(tokens) == 0 {
		return s
	}

	ids := make([]string, 0, len(tokens))
	for id := range tokens {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) > len(ids[j])
		}
		return ids[i] < ids[j]
	})

	out := s
	for _, id := range ids {
		out = strings.ReplaceAll(out, id, tokens[id])
	}
	return out
}
