package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTokenizer(t *testing.T, terms ...string) *Tokenizer {
	t.Helper()
	tok, err := New(terms)
	require.NoError(t, err)
	return tok
}

func TestTokenizeRoundTripIdentity(t *testing.T) {
	tok := mustTokenizer(t, "Acme")

	inputs := []string{
		"",
		"plain text with nothing to protect",
		"Hello {name}!",
		"Spaced { email } placeholder",
		"Indexed {0} and {1}",
		"Dotted {user.name} and bracketed {items[0]}",
		"Percent %s and %d and %w",
		"Mustache {{name}} and {{ spaced }}",
		"Colon :id and :userName",
		"<b>Bold</b> text with <a href=\"https://example.com\">a link</a>",
		"Self closing <br/> tag",
		"Acme ships to Acme customers",
		"Everything: <i>{x}</i> %s {{y}} :z Acme {{ a.b }}",
	}

	for _, input := range inputs {
		shielded, m := tok.Tokenize(input)
		assert.Equal(t, input, Detokenize(shielded, m), "input %q", input)
	}
}

func TestTokenizeShieldsEveryCategory(t *testing.T) {
	tok := mustTokenizer(t, "Acme")

	protected := []string{
		"<b>", "</b>", `<a href="x">`,
		"{name}", "{ email }", "{0}",
		"%s", "%d",
		"{{name}}", "{{ x }}",
		":id",
		"Acme",
	}

	for _, p := range protected {
		shielded, m := tok.Tokenize("before " + p + " after")
		assert.NotContains(t, shielded, p, "original %q must not survive tokenization", p)
		assert.Len(t, m, 1)
		for _, orig := range m {
			assert.Equal(t, p, orig)
		}
	}
}

func TestTokensAreInertToOwnPatterns(t *testing.T) {
	tok := mustTokenizer(t, "Acme", "T0")

	shielded, _ := tok.Tokenize("<b>{x}</b> %s {{y}} :z Acme")
	reshielded, m := tok.Tokenize(shielded)
	assert.Equal(t, shielded, reshielded, "tokens must not re-match any pattern")
	assert.Empty(t, m)
}

func TestMustacheWinsOverInnerCurly(t *testing.T) {
	tok := mustTokenizer(t)

	shielded, m := tok.Tokenize("a {{long.placeholder}} b {short} c")
	assert.NotContains(t, shielded, "{")
	assert.NotContains(t, shielded, "}")

	restored := Detokenize(shielded, m)
	assert.Equal(t, "a {{long.placeholder}} b {short} c", restored)
}

func TestProtectedTermWholeWordOnly(t *testing.T) {
	tok := mustTokenizer(t, "Acme")

	shielded, m := tok.Tokenize("Acme but not Acmeify or MegaAcme")
	assert.Len(t, m, 1)
	assert.Contains(t, shielded, "Acmeify")
	assert.Contains(t, shielded, "MegaAcme")
}

func TestProtectedTermCaseSensitive(t *testing.T) {
	tok := mustTokenizer(t, "Acme")

	_, m := tok.Tokenize("acme ACME aCme")
	assert.Empty(t, m)
}

func TestProtectedTermWithRegexMetacharacters(t *testing.T) {
	tok := mustTokenizer(t, "C++")

	// \b after + does not match a word boundary the naive way; the term
	// still round-trips when it appears in the text.
	shielded, m := tok.Tokenize("we love C++ here")
	assert.Equal(t, "we love C++ here", Detokenize(shielded, m))
}

func TestDetokenizeLongestTokenFirst(t *testing.T) {
	// __T1__ vs __T12__: the shorter identifier must never corrupt the
	// longer one during restoration.
	m := TokenMap{}
	var sb strings.Builder
	sb.WriteString("start ")
	for i := 0; i <= 12; i++ {
		tokID := tokenID(i)
		m[tokID] = placeholderFor(i)
		sb.WriteString(tokID + " ")
	}
	sb.WriteString("end")

	restored := Detokenize(sb.String(), m)
	for i := 0; i <= 12; i++ {
		assert.Contains(t, restored, placeholderFor(i))
	}
	assert.NotContains(t, restored, "__T")
}

func TestDetokenizeReplacesDuplicatedTokens(t *testing.T) {
	tok := mustTokenizer(t)

	shielded, m := tok.Tokenize("use {name} once")
	// Simulate a translator duplicating the token.
	doubled := shielded + " " + shielded
	restored := Detokenize(doubled, m)
	assert.Equal(t, "use {name} once use {name} once", restored)
}

func TestTokenizeKeepsTranslatableTextBetweenTags(t *testing.T) {
	tok := mustTokenizer(t)

	shielded, _ := tok.Tokenize("<b>Bold</b> text")
	assert.Contains(t, shielded, "Bold")
	assert.Contains(t, shielded, "text")
	assert.NotContains(t, shielded, "<b>")
}

func TestTermDirectlyInsideTagPair(t *testing.T) {
	tok := mustTokenizer(t, "Acme")

	shielded, m := tok.Tokenize("<b>Acme</b>")
	assert.NotContains(t, shielded, "Acme",
		"term must be shielded even with no translatable text around it")
	assert.Len(t, m, 3)

	// A translator rewriting everything it sees must not be able to touch
	// the term or the tags.
	restored := Detokenize(strings.ToUpper(shielded), m)
	assert.Equal(t, "<b>Acme</b>", restored)
}

func TestAdjacentProtectedRegionsRoundTrip(t *testing.T) {
	tok := mustTokenizer(t, "Acme")

	inputs := []string{
		"50%{unit}",
		"see :<b>x</b>",
		"%<b>bold</b>",
		"<b>Acme</b>",
		"{a}{b}",
		"%s%d",
		":a:b",
		"<i><b>x</b></i>",
		"Acme%s",
	}

	for _, input := range inputs {
		shielded, m := tok.Tokenize(input)
		assert.Equal(t, input, Detokenize(shielded, m), "input %q", input)

		hostile := Detokenize(strings.ToUpper(shielded), m)
		assert.NotContains(t, hostile, "__T", "input %q leaked a token", input)
	}
}

func TestTokenizeSkipsIDsPresentInInput(t *testing.T) {
	tok := mustTokenizer(t)

	input := "literal __T0__ next to {x}"
	shielded, m := tok.Tokenize(input)
	require.Len(t, m, 1)
	_, clash := m["__T0__"]
	assert.False(t, clash, "id colliding with input text must be skipped")
	assert.Equal(t, input, Detokenize(shielded, m))

	// The literal stays translatable text; only the placeholder is shielded.
	restored := Detokenize(strings.ToUpper(shielded), m)
	assert.Equal(t, "LITERAL __T0__ NEXT TO {x}", restored)
}

func tokenID(i int) string {
	return "__T" + itoa(i) + "__"
}

func placeholderFor(i int) string {
	return "{v" + itoa(i) + "}"
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return string(rune('0'+i/10)) + string(rune('0'+i%10))
}
