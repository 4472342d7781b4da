// Package charset detects the byte encoding of source files and decodes
// them to UTF-8.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

const (
	// UTF8 is the label reported for UTF-8 (and pure ASCII) content.
	UTF8 = "UTF-8"

	// MaxConfidence is the confidence reported for BOM and UTF-8 matches.
	MaxConfidence = 100
)

var (
	// ErrUndetected is returned when no encoding could be guessed.
	ErrUndetected = errors.New("encoding could not be detected")
	// ErrLowConfidence is returned when the best guess is below the threshold.
	ErrLowConfidence = errors.New("encoding detection confidence too low")
	// ErrUnsupported is returned for labels that have no decoder.
	ErrUnsupported = errors.New("unsupported encoding")
	// ErrDecode is returned when the bytes cannot be represented in the encoding.
	ErrDecode = errors.New("content cannot be decoded")
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
)

// renames maps detector labels to the names the text indexes use.
var renames = map[string]string{
	"gb-18030":     "gb18030",
	"iso-8859-8-i": "iso-8859-8",
}

// unicodeEncodings holds decoders the HTML index lacks or resolves without
// BOM handling.
var unicodeEncodings = map[string]encoding.Encoding{
	"utf-32le": utf32.UTF32(utf32.LittleEndian, utf32.UseBOM),
	"utf-32be": utf32.UTF32(utf32.BigEndian, utf32.UseBOM),
	"utf-16le": unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-16be": unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
}

// Detection is the result of encoding detection for one file.
type Detection struct {
	Charset    string
	Language   string
	Confidence int
}

func (d Detection) String() string {
	if d.Language != "" {
		return fmt.Sprintf("%s (%s, %d%%)", d.Charset, d.Language, d.Confidence)
	}
	return fmt.Sprintf("%s (%d%%)", d.Charset, d.Confidence)
}

// Detect guesses the encoding of raw.
// A byte order mark or valid UTF-8 content short-circuits the statistical
// detector with full confidence.
func Detect(raw []byte) (Detection, error) {
	switch {
	case bytes.HasPrefix(raw, bomUTF32LE):
		return Detection{Charset: "UTF-32LE", Confidence: MaxConfidence}, nil
	case bytes.HasPrefix(raw, bomUTF32BE):
		return Detection{Charset: "UTF-32BE", Confidence: MaxConfidence}, nil
	case bytes.HasPrefix(raw, bomUTF8):
		return Detection{Charset: UTF8, Confidence: MaxConfidence}, nil
	case bytes.HasPrefix(raw, bomUTF16LE):
		return Detection{Charset: "UTF-16LE", Confidence: MaxConfidence}, nil
	case bytes.HasPrefix(raw, bomUTF16BE):
		return Detection{Charset: "UTF-16BE", Confidence: MaxConfidence}, nil
	case utf8.Valid(raw):
		return Detection{Charset: UTF8, Confidence: MaxConfidence}, nil
	}

	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || result == nil || result.Charset == "" {
		return Detection{}, ErrUndetected
	}
	return Detection{
		Charset:    result.Charset,
		Language:   result.Language,
		Confidence: result.Confidence,
	}, nil
}

// Detector applies a minimum confidence to Detect.
type Detector struct {
	// MinConfidence is the lowest accepted confidence, 0..100.
	MinConfidence int
}

// Detect guesses the encoding of raw and rejects guesses below MinConfidence.
func (d Detector) Detect(raw []byte) (Detection, error) {
	det, err := Detect(raw)
	if err != nil {
		return det, err
	}
	if det.Confidence < d.MinConfidence {
		return det, fmt.Errorf("%w: best guess %s at %d%%, need %d%%",
			ErrLowConfidence, det.Charset, det.Confidence, d.MinConfidence)
	}
	return det, nil
}

// Lookup returns the decoder for an encoding label.
func Lookup(label string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if enc, ok := unicodeEncodings[key]; ok {
		return enc, nil
	}
	if name, ok := renames[key]; ok {
		key = name
	}

	if enc, err := htmlindex.Get(key); err == nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(label); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, label)
}

// Decode converts raw from the named encoding to UTF-8.
// A leading byte order mark is removed.
func Decode(raw []byte, label string) ([]byte, error) {
	if strings.EqualFold(label, UTF8) || strings.EqualFold(label, "utf8") {
		out := bytes.TrimPrefix(raw, bomUTF8)
		if !utf8.Valid(out) {
			return nil, fmt.Errorf("%w: invalid %s byte sequence", ErrDecode, UTF8)
		}
		return out, nil
	}

	enc, err := Lookup(label)
	if err != nil {
		return nil, err
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w as %s: %v", ErrDecode, label, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, fmt.Errorf("%w as %s: byte sequence has no mapping", ErrDecode, label)
	}
	return bytes.TrimPrefix(out, bomUTF8), nil
}
