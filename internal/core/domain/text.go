package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeText collapses whitespace runs to single spaces and trims the
// ends. Chunk hashes are computed over normalized text, so spans that
// differ only in whitespace collapse to the same hash.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// HashText is the content hash used for chunk and document identity.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// TokenizeText lowercases text and splits it into ASCII alphanumeric
// runs, optionally dropping English stop words. Lexical indexing, the
// answer-grounding overlap and query-variant dedup all share this
// tokenizer.
func TokenizeText(s string, dropStopwords bool) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		tok := b.String()
		b.Reset()
		if dropStopwords && stopwords[tok] {
			return
		}
		out = append(out, tok)
	}
	for _, r := range s {
		r = toLowerASCII(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
