package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wdm0006/parquetize/pkg/charset"
)

// Auto asks the parser to sniff the delimiter.
const Auto rune = 0

// Candidate is one (encoding, delimiter) pair to try.
type Candidate struct {
	Encoding  charset.Encoding
	Delimiter rune
}

// DelimiterLabel renders the delimiter for progress output.
func (c Candidate) DelimiterLabel() string { return DelimiterLabel(c.Delimiter) }

func (c Candidate) String() string { return string(c.Encoding) + "/" + c.DelimiterLabel() }

// DelimiterLabel renders r as shown in progress lines and results.
func DelimiterLabel(r rune) string {
	switch r {
	case Auto:
		return "auto"
	case '\t':
		return `\t`
	}
	return string(r)
}

// DefaultDelimiters is the delimiter trial order.
var DefaultDelimiters = []rune{';', ',', Auto}

// DefaultCandidates is the encoding-major product of charset.Supported and
// DefaultDelimiters.
func DefaultCandidates() []Candidate {
	return product(charset.Supported(), DefaultDelimiters)
}

func product(encs []charset.Encoding, delims []rune) []Candidate {
	out := make([]Candidate, 0, len(encs)*len(delims))
	for _, e := range encs {
		for _, d := range delims {
			out = append(out, Candidate{Encoding: e, Delimiter: d})
		}
	}
	return out
}

// BuildCandidates resolves configured encoding and delimiter names. Empty
// lists fall back to the defaults.
func BuildCandidates(encodings, delimiters []string) ([]Candidate, error) {
	encs := charset.Supported()
	if len(encodings) > 0 {
		encs = nil
		for _, name := range encodings {
			e, err := charset.Lookup(name)
			if err != nil {
				return nil, err
			}
			encs = append(encs, e)
		}
	}
	delims := DefaultDelimiters
	if len(delimiters) > 0 {
		delims = nil
		for _, s := range delimiters {
			d, err := ParseDelimiter(s)
			if err != nil {
				return nil, err
			}
			delims = append(delims, d)
		}
	}
	return product(encs, delims), nil
}

// ParseDelimiter accepts "auto", "tab", `\t` or a single character.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return Auto, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}
