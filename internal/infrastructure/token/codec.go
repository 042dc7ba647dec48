package token

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Codec wraps a tiktoken encoding. Initialization is lazy because the
// encoding data may be fetched on first use; when it is unavailable,
// Count falls back to a rune-density estimate and Ready reports false.
type Codec struct {
	encoding string

	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

func NewCodec(encoding string) *Codec {
	if encoding == "" {
		encoding = defaultEncoding
	}
	return &Codec{encoding: encoding}
}

func (c *Codec) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.initErr = fmt.Errorf("init tiktoken encoding %s: %w", c.encoding, err)
			return
		}
		c.enc = enc
	})
	return c.initErr
}

// Ready reports whether the real encoding loaded. Callers that need exact
// token windows (chunking in token units) should check this and fall back
// to rune units when it fails.
func (c *Codec) Ready() bool { return c.init() == nil }

func (c *Codec) Encode(text string) []int {
	if c.init() != nil {
		return nil
	}
	return c.enc.Encode(text, nil, nil)
}

func (c *Codec) Decode(ids []int) string {
	if c.init() != nil {
		return ""
	}
	return c.enc.Decode(ids)
}

// Count implements ports.TokenCounter.
func (c *Codec) Count(text string) int {
	if c.init() == nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Estimate approximates token counts at roughly four runes per token,
// the usual density of English text under BPE vocabularies.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
