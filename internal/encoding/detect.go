package encoding

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sampleSize is how much of the input is inspected before decoding starts.
const sampleSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DefaultFallback decodes input whose charset cannot be told apart. Ledger
// exports from Russian spreadsheet locales are windows-1251.
var DefaultFallback encoding.Encoding = charmap.Windows1251

// Charset describes how a sample was classified.
type Charset struct {
	Name string
	// Encoding is nil when the input is already UTF-8.
	Encoding encoding.Encoding
	// Skip is the number of leading BOM bytes to drop.
	Skip int
}

// Detect classifies sample. BOMs win, then valid UTF-8, then the chardet
// guess when the WHATWG index knows it, then fallback.
func Detect(sample []byte, fallback encoding.Encoding) Charset {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return Charset{Name: "utf-8", Skip: len(bomUTF8)}
	case bytes.HasPrefix(sample, bomUTF16LE):
		return Charset{Name: "utf-16le", Encoding: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)}
	case bytes.HasPrefix(sample, bomUTF16BE):
		return Charset{Name: "utf-16be", Encoding: unicode.UTF16(unicode.BigEndian, unicode.UseBOM)}
	case validUTF8Prefix(sample):
		return Charset{Name: "utf-8"}
	}

	if result, err := chardet.NewTextDetector().DetectBest(sample); err == nil {
		if result.Charset == "UTF-8" {
			return Charset{Name: "utf-8"}
		}

		if enc, err := htmlindex.Get(result.Charset); err == nil {
			return Charset{Name: canonicalName(enc, result.Charset), Encoding: enc}
		}
	}

	if fallback == nil {
		fallback = DefaultFallback
	}

	return Charset{Name: canonicalName(fallback, "fallback"), Encoding: fallback}
}

// NewUTF8Reader sniffs the start of r and returns a reader yielding UTF-8
// together with the detected charset.
func NewUTF8Reader(r io.Reader, fallback encoding.Encoding) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sampleSize)

	sample, err := br.Peek(sampleSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, Charset{}, fmt.Errorf("peek: %w", err)
	}

	cs := Detect(sample, fallback)

	if cs.Skip > 0 {
		if _, err := br.Discard(cs.Skip); err != nil {
			return nil, Charset{}, fmt.Errorf("discard bom: %w", err)
		}
	}

	if cs.Encoding == nil {
		return br, cs, nil
	}

	return transform.NewReader(br, cs.Encoding.NewDecoder()), cs, nil
}

// validUTF8Prefix reports whether sample is UTF-8, tolerating a multi-byte
// rune cut off by the sample boundary.
func validUTF8Prefix(sample []byte) bool {
	if utf8.Valid(sample) {
		return true
	}

	for cut := 1; cut < utf8.UTFMax && cut < len(sample); cut++ {
		if utf8.Valid(sample[:len(sample)-cut]) {
			return !utf8.FullRune(sample[len(sample)-cut:])
		}
	}

	return false
}

func canonicalName(enc encoding.Encoding, def string) string {
	if name, err := htmlindex.Name(enc); err == nil {
		return name
	}

	return def
}
