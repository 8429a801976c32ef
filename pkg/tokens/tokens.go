// Package tokens estimates prompt sizes with the cl100k_base encoding.
package tokens

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const (
	encodingName  = "cl100k_base"
	runesPerToken = 4
)

var (
	tkOnce sync.Once
	tk     *tiktoken.Tiktoken
)

// tiktoken fetches the BPE ranks on first use; without them Count falls back to a rune estimate.
func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			tk = enc
		}
	})
	return tk
}

// Count returns the number of tokens in text.
func Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := getTokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Estimate approximates the token count at four runes per token.
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + runesPerToken - 1) / runesPerToken
}

// CountAll sums Count over texts.
func CountAll(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += Count(t)
	}
	return total
}

// Trim splits text that exceeds maxTokens tokens into its first headTokens tokens and its last
// maxTokens-headTokens tokens. dropped counts the tokens left out between them; when text fits,
// head is text and dropped is 0.
func Trim(text string, maxTokens, headTokens int) (head, tail string, dropped int) {
	if text == "" || maxTokens <= 0 {
		return text, "", 0
	}
	headTokens = min(max(headTokens, 0), maxTokens)

	enc := getTokenizer()
	if enc == nil {
		return trimRunes(text, maxTokens, headTokens)
	}

	ids := enc.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text, "", 0
	}
	head = strings.ToValidUTF8(enc.Decode(ids[:headTokens]), "")
	tail = strings.ToValidUTF8(enc.Decode(ids[len(ids)-(maxTokens-headTokens):]), "")
	return head, tail, len(ids) - maxTokens
}

func trimRunes(text string, maxTokens, headTokens int) (head, tail string, dropped int) {
	total := Estimate(text)
	rs := []rune(text)
	hn, tn := headTokens*runesPerToken, (maxTokens-headTokens)*runesPerToken
	if total <= maxTokens || hn+tn >= len(rs) {
		return text, "", 0
	}
	return string(rs[:hn]), string(rs[len(rs)-tn:]), total - maxTokens
}
