// Package charset decodes raw input bytes into UTF-8 text for a small set of
// single-byte and Unicode encodings. Decoding is strict: a byte sequence the
// encoding does not define is an error, never a silent substitution, except in
// DecodeReplacing which exists for the last-resort path.
package charset

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is a canonical encoding identifier.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	UTF8SIG     Encoding = "utf-8-sig"
	Windows1252 Encoding = "windows-1252"
	Latin1      Encoding = "latin-1"
)

var bom = []byte{0xef, 0xbb, 0xbf}

var aliases = map[string]Encoding{
	"utf-8":        UTF8,
	"utf8":         UTF8,
	"utf-8-sig":    UTF8SIG,
	"utf8-sig":     UTF8SIG,
	"utf-8-bom":    UTF8SIG,
	"windows-1252": Windows1252,
	"cp1252":       Windows1252,
	"latin-1":      Latin1,
	"latin1":       Latin1,
	"iso-8859-1":   Latin1,
	"iso8859-1":    Latin1,
}

// Lookup resolves a user supplied name (case-insensitive, common aliases).
func Lookup(name string) (Encoding, error) {
	if enc, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return enc, nil
	}
	return "", fmt.Errorf("unknown encoding %q", name)
}

// Supported lists the canonical encodings in their default trial order.
func Supported() []Encoding {
	return []Encoding{UTF8, UTF8SIG, Windows1252, Latin1}
}

// DecodeError reports the first byte an encoding could not decode.
type DecodeError struct {
	Encoding Encoding
	Offset   int
	Byte     byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: cannot decode byte 0x%02x at offset %d", e.Encoding, e.Byte, e.Offset)
}

// Decode converts b to UTF-8 using enc. The result may alias b.
func Decode(enc Encoding, b []byte) ([]byte, error) {
	switch enc {
	case UTF8:
		if off := invalidUTF8(b); off >= 0 {
			return nil, &DecodeError{Encoding: enc, Offset: off, Byte: b[off]}
		}
		return b, nil
	case UTF8SIG:
		if off := invalidUTF8(b); off >= 0 {
			return nil, &DecodeError{Encoding: enc, Offset: off, Byte: b[off]}
		}
		return bytes.TrimPrefix(b, bom), nil
	case Windows1252:
		for i, c := range b {
			if charmap.Windows1252.DecodeByte(c) == utf8.RuneError {
				return nil, &DecodeError{Encoding: enc, Offset: i, Byte: c}
			}
		}
		return charmap.Windows1252.NewDecoder().Bytes(b)
	case Latin1:
		return charmap.ISO8859_1.NewDecoder().Bytes(b)
	}
	return nil, fmt.Errorf("unknown encoding %q", enc)
}

// DecodeReplacing decodes b as UTF-8, substituting U+FFFD for every invalid
// byte. It returns the text and the number of substituted bytes.
func DecodeReplacing(b []byte) ([]byte, int) {
	replaced := 0
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			replaced++
		}
		i += size
	}
	if replaced == 0 {
		return b, 0
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		out = bytes.ToValidUTF8(b, []byte(string(utf8.RuneError)))
	}
	return out, replaced
}

func invalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
