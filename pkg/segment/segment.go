// Package segment splits chat messages into the tokens the chain learns from.
package segment

import (
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"golang.org/x/text/unicode/norm"
)

// latinMax is the highest code point treated as space-delimited script.
// Anything above it is segmented with the morphological analyzer.
const latinMax = 0x1000

var (
	// Rich tokens look like <:name:123> and are kept whole.
	reRichToken = regexp.MustCompile(`<:[^:\s>]+:\d+>`)

	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// Analyzer tokenizes text, splitting runs of scripts without spaces
// (Japanese, Chinese) into words with kagome.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer creates a new tokenizer instance.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Tokenize splits input into tokens. Rich tokens are kept atomic, everything
// else is split on whitespace, and whitespace-split words containing
// non-Latin characters are further segmented. The result never contains
// empty tokens. Tokenize is safe for concurrent use.
func (a *Analyzer) Tokenize(input string) []string {
	input = norm.NFC.String(input)

	var out []string
	last := 0
	for _, loc := range reRichToken.FindAllStringIndex(input, -1) {
		out = a.appendWords(out, input[last:loc[0]])
		out = append(out, input[loc[0]:loc[1]])
		last = loc[1]
	}
	return a.appendWords(out, input[last:])
}

func (a *Analyzer) appendWords(out []string, text string) []string {
	for _, w := range strings.Fields(text) {
		if !HasNonLatin(w) {
			out = append(out, w)
			continue
		}
		for _, tok := range a.t.Tokenize(w) {
			if tok.Class == tokenizer.DUMMY {
				continue
			}
			if strings.TrimSpace(tok.Surface) == "" {
				continue
			}
			out = append(out, tok.Surface)
		}
	}
	return out
}

// HasNonLatin reports whether s contains a rune outside the space-delimited range.
func HasNonLatin(s string) bool {
	for _, r := range s {
		if r > latinMax {
			return true
		}
	}
	return false
}

// TrimSpaces removes single spaces that sit between two non-Latin characters,
// since those scripts are not written with spaces. The start and end of the
// string count as non-Latin neighbours.
func TrimSpaces(s string) string {
	if !strings.Contains(s, " ") {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if r == ' ' &&
			(i == 0 || runes[i-1] > latinMax) &&
			(i == len(runes)-1 || runes[i+1] > latinMax) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SplitSentences splits text on Japanese sentence delimiters and newlines.
// Delimiters stay attached to the sentence they end.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		// 。(3002), ！(FF01), ？(FF1F)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability extracts furigana along with the base text,
// which would otherwise be learned as duplicated words (e.g. "漢字かんじ").
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}
