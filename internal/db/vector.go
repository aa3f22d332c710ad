package db

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EncodeVector packs v as little-endian float32, the FT.SEARCH vector blob format.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a little-endian float32 blob.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// ParseStoredVector decodes an embedding stored either as JSON text
// ("[0.1, 0.2]", as pgvector and most loaders emit it) or as a binary blob.
// Printable text that is not a JSON array is rejected rather than read as a blob.
func ParseStoredVector(raw string) ([]float32, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty vector")
	}
	if s := strings.TrimSpace(raw); strings.HasPrefix(s, "[") {
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err != nil {
			return nil, fmt.Errorf("parse vector text: %w", err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("empty vector")
		}
		return vec, nil
	}
	if isPrintableText(raw) {
		return nil, fmt.Errorf("vector text %q is neither a JSON array nor a float32 blob", truncate(raw, 32))
	}
	return DecodeVector([]byte(raw))
}

// isPrintableText reports whether s is valid UTF-8 made only of printable
// characters and whitespace. Encoded float32 vectors practically always
// carry control or invalid bytes.
func isPrintableText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
