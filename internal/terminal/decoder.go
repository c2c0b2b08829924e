package terminal

import (
	"strings"
	"unicode/utf8"
)

// decoder turns raw PTY reads into text. A multi-byte sequence split across
// two reads is held back until it completes. Every other ill-formed sequence
// becomes one U+FFFD, where a sequence is the longest prefix of a valid
// encoding (a lone byte if there is none).
type decoder struct {
	pending []byte
}

func (d *decoder) decode(p []byte) string {
	var buf []byte
	if len(d.pending) > 0 {
		buf = append(d.pending, p...)
		d.pending = nil
	} else {
		buf = p
	}

	cut := incompleteTail(buf)
	if cut < len(buf) {
		d.pending = append([]byte(nil), buf[cut:]...)
		buf = buf[:cut]
	}
	return lossy(buf)
}

// flush returns whatever is still held back.
func (d *decoder) flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	s := lossy(d.pending)
	d.pending = nil
	return s
}

func lossy(p []byte) string {
	if utf8.Valid(p) {
		return string(p)
	}
	var b strings.Builder
	b.Grow(len(p) + 2*utf8.UTFMax)
	for len(p) > 0 {
		r, size := utf8.DecodeRune(p)
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			p = p[invalidPrefix(p):]
			continue
		}
		b.Write(p[:size])
		p = p[size:]
	}
	return b.String()
}

// invalidPrefix returns how many bytes of the ill-formed sequence at the
// start of p collapse into one replacement character: the lead byte plus
// the continuation bytes that are still valid for it.
func invalidPrefix(p []byte) int {
	lead := p[0]
	var need int
	lo, hi := byte(0x80), byte(0xBF)
	switch {
	case lead >= 0xC2 && lead <= 0xDF:
		need = 1
	case lead == 0xE0:
		need, lo = 2, 0xA0
	case lead == 0xED:
		need, hi = 2, 0x9F
	case lead >= 0xE1 && lead <= 0xEF:
		need = 2
	case lead == 0xF0:
		need, lo = 3, 0x90
	case lead == 0xF4:
		need, hi = 3, 0x8F
	case lead >= 0xF1 && lead <= 0xF3:
		need = 3
	default:
		return 1
	}

	n := 1
	for n <= need && n < len(p) {
		c := p[n]
		if c < lo || c > hi {
			break
		}
		lo, hi = 0x80, 0xBF
		n++
	}
	return n
}

// incompleteTail returns the offset where a truncated trailing UTF-8
// sequence starts, or len(p) if p does not end mid-sequence.
func incompleteTail(p []byte) int {
	// A sequence is at most UTFMax bytes, so only the last few can matter.
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if !utf8.FullRune(p[i:]) {
			return i
		}
		break
	}
	return len(p)
}
