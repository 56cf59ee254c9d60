// Package textenc translates per-kind encoding options into byte-level
// decode/encode steps around source reads and output writes.
package textenc

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Codec decodes source bytes to UTF-8 and encodes output bytes back to the
// configured charset. The zero value is not usable; use Lookup.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// Lookup resolves an encoding name (IANA/WHATWG label, e.g. "utf8", "latin1")
// to a Codec. An empty name defaults to UTF-8.
func Lookup(name string) (*Codec, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "", "utf8", "utf-8":
		return &Codec{name: "utf-8", enc: unicode.UTF8}, nil
	}
	enc, err := htmlindex.Get(normalized)
	if err != nil {
		return nil, err
	}
	return &Codec{name: normalized, enc: enc}, nil
}

// Name returns the normalized encoding label.
func (c *Codec) Name() string { return c.name }

// Decode converts bytes in the codec's charset to UTF-8.
func (c *Codec) Decode(b []byte) ([]byte, error) {
	if c.enc == unicode.UTF8 {
		return b, nil
	}
	return c.enc.NewDecoder().Bytes(b)
}

// Encode converts UTF-8 bytes to the codec's charset.
func (c *Codec) Encode(b []byte) ([]byte, error) {
	if c.enc == unicode.UTF8 {
		return b, nil
	}
	return c.enc.NewEncoder().Bytes(b)
}
