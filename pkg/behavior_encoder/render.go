package behavior_encoder

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"sort"
	"strings"
	"unicode"
)

// Colorize passes every run of glyphs between pauses and delimiters through
// render. A nil render returns s unchanged.
func Colorize(s string, pauses []string, render func(string) string) string {
	if render == nil {
		return s
	}
	delims := append([]string{".", "|", "(", ")", "*", " "}, pauses...)
	var b strings.Builder
	for _, tok := range splitKeep(s, delims) {
		if isOneOf(tok, delims) || strings.IndexFunc(tok, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
			b.WriteString(tok)
			continue
		}
		b.WriteString(render(tok))
	}
	return b.String()
}

// Fingerprint hashes the aggregate strings of a result. Two results with the same
// dimensions and strings share a fingerprint regardless of run id or timestamps.
func Fingerprint(r Result) uint64 {
	h := fnv.New64a()
	dims := make([]string, 0, len(r.Bloc))
	for d := range r.Bloc {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	writeInt(h, len(dims))
	for _, d := range dims {
		writeString(h, d)
		writeString(h, r.Bloc[d])
	}
	return h.Sum64()
}

func writeInt(h hash.Hash64, v int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, _ = h.Write(buf[:])
}

func writeString(h hash.Hash64, s string) {
	_, _ = h.Write([]byte(s))
	_, _ = h.Write([]byte{0})
}
