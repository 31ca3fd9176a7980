package search

import "bytes"

// binaryHeaderSize is how much of a file's start to sniff for a NUL
// byte before deciding it's binary, matching grep.go's isBinaryHeader
// (512-byte header read).
const binaryHeaderSize = 512

// looksBinary reports whether header (the first up-to-binaryHeaderSize
// bytes of a file) contains a NUL byte, the same heuristic ripgrep and
// grep.go's isBinaryHeader use.
func looksBinary(header []byte) bool {
	return bytes.IndexByte(header, 0) >= 0
}

// convertBinary replaces every NUL byte in b with term in place,
// implementing Config.BinaryConvert: rather than quitting the file at
// the first NUL, the searcher treats it as a line break so matching
// can continue past it (ripgrep's --binary behavior).
func convertBinary(b []byte, term byte) {
	for i, c := range b {
		if c == 0 {
			b[i] = term
		}
	}
}
