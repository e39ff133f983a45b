package vfs

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding represents a character encoding.
type Encoding string

const (
	// EncodingUTF8 is UTF-8 encoding (default).
	EncodingUTF8 Encoding = "utf-8"

	// EncodingUTF8BOM is UTF-8 encoding with BOM.
	EncodingUTF8BOM Encoding = "utf-8-bom"

	// EncodingUTF16LE is UTF-16 Little Endian.
	EncodingUTF16LE Encoding = "utf-16le"

	// EncodingUTF16BE is UTF-16 Big Endian.
	EncodingUTF16BE Encoding = "utf-16be"

	// EncodingLatin1 is ISO-8859-1 (Latin-1).
	EncodingLatin1 Encoding = "iso-8859-1"
)

// BOM (Byte Order Mark) constants
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectEncoding reports the encoding of file content. It checks for BOM
// markers first, then validates UTF-8, and falls back to Latin-1 which
// accepts all byte sequences.
func DetectEncoding(content []byte) Encoding {
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		return EncodingUTF8BOM
	case bytes.HasPrefix(content, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(content, bomUTF16BE):
		return EncodingUTF16BE
	case utf8.Valid(content):
		return EncodingUTF8
	}
	return EncodingLatin1
}

// HasBOM reports whether the encoding writes a byte order mark.
func (e Encoding) HasBOM() bool {
	return e == EncodingUTF8BOM || e == EncodingUTF16LE || e == EncodingUTF16BE
}

// DecodeText converts raw file bytes into document text. A leading BOM
// selects the encoding and is removed; otherwise invalid UTF-8 is read as
// Latin-1.
func DecodeText(content []byte) (string, Encoding, error) {
	enc := DetectEncoding(content)

	var t transform.Transformer
	if enc == EncodingLatin1 {
		t = charmap.ISO8859_1.NewDecoder()
	} else {
		t = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}

	out, _, err := transform.Bytes(t, content)
	if err != nil {
		return "", enc, fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), enc, nil
}

// EncodeText converts document text back into bytes in the given encoding,
// writing a BOM where the encoding has one.
func EncodeText(text string, enc Encoding) ([]byte, error) {
	var t transform.Transformer
	switch enc {
	case EncodingUTF8, "":
		return []byte(text), nil
	case EncodingUTF8BOM:
		return append(append([]byte{}, bomUTF8...), text...), nil
	case EncodingUTF16LE:
		t = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	case EncodingUTF16BE:
		t = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	case EncodingLatin1:
		t = charmap.ISO8859_1.NewEncoder()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}

	out, _, err := transform.Bytes(t, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc, err)
	}
	return out, nil
}

// IsBinary attempts to detect if content is binary (not text).
// Uses heuristics: presence of null bytes, high ratio of non-printable characters.
func IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	if bytes.HasPrefix(content, bomUTF16LE) || bytes.HasPrefix(content, bomUTF16BE) {
		return false
	}

	// Check first 8KB at most
	sample := content[:min(len(content), 8192)]

	// Null bytes are a strong indicator of binary
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	nonText := 0
	for _, b := range sample {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			nonText++
		}
	}

	// If more than 10% are non-text, consider it binary
	return float64(nonText)/float64(len(sample)) > 0.1
}
