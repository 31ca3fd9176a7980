package search

import (
	"bytes"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BOM prefixes recognized for UTF-16 transcoding (spec.md §6
// "encoding detection"). golang.org/x/text is already a
// dependency (go.mod); grounded on its
// encoding/unicode.BOMOverride pattern rather than hand-rolling a
// UTF-16 decoder, the way the rest of this module avoids reimplementing
// anything the pack's dependency set already covers well.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// transcodeToUTF8 sniffs data for a byte-order mark and, if one names
// a UTF-16 encoding, transcodes the whole buffer to UTF-8. Data with no
// recognized BOM (including plain UTF-8 and arbitrary bytes) is
// returned unchanged, since the searcher works directly on bytes and
// doesn't need UTF-8 validity to match ASCII/byte patterns.
func transcodeToUTF8(data []byte) ([]byte, error) {
	var enc unicode.Encoding
	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		enc = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case bytes.HasPrefix(data, bomUTF16BE):
		enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	default:
		return data, nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transcodingReader wraps r so every byte read from it has already
// been transcoded to UTF-8. sniffed holds the bytes already read from
// the start of r; they are replayed ahead of the rest of r. SearchFile
// feeds the result to either search strategy; transcodeToUTF8 is the
// whole-buffer counterpart.
func transcodingReader(r io.Reader, sniffed []byte) (io.Reader, error) {
	switch {
	case bytes.HasPrefix(sniffed, bomUTF16LE):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		return transform.NewReader(io.MultiReader(bytes.NewReader(sniffed), r), dec), nil
	case bytes.HasPrefix(sniffed, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		return transform.NewReader(io.MultiReader(bytes.NewReader(sniffed), r), dec), nil
	case bytes.HasPrefix(sniffed, bomUTF8):
		return io.MultiReader(bytes.NewReader(sniffed[len(bomUTF8):]), r), nil
	default:
		return io.MultiReader(bytes.NewReader(sniffed), r), nil
	}
}
