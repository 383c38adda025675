package csv

// streaming.go decodes raw export bytes before tokenizing.
//
// Spreadsheet tools are inconsistent about what they put on the wire:
//
//   - bomReader drops the UTF-8 BOM (0xEF 0xBB 0xBF) that Windows tools prepend
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader tracks bytes read and enforces an optional size cap
//
// WrapForStreaming applies all three in that order.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrTooLarge is returned by CountingReader once more than Limit bytes
// have been read.
var ErrTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader strips a leading UTF-8 BOM.
type bomReader struct {
	br      *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{br: bufio.NewReader(r)}
}

func (r *bomReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if len(head) == len(utf8BOM) && head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// utf8Sanitizer rewrites invalid UTF-8. Reads from r land in buf; a
// multi-byte sequence split across two reads is carried over in pending,
// and sanitized bytes not yet handed to the caller wait in out.
type utf8Sanitizer struct {
	r       io.Reader
	buf     []byte
	pending []byte
	out     []byte
	err     error
}

const sanitizeBufSize = 32 * 1024

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{
		r:       r,
		buf:     make([]byte, sanitizeBufSize),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}

	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// fill reads the next chunk behind any carried-over bytes and sanitizes it.
func (s *utf8Sanitizer) fill() {
	n := copy(s.buf, s.pending)
	s.pending = s.pending[:0]

	m, err := s.r.Read(s.buf[n:])
	n += m
	s.err = err

	s.out = s.buf[:s.sanitize(s.buf[:n], err != nil)]
}

// sanitize compacts data in place and returns the number of bytes to hand
// back. When atEOF is false an incomplete trailing rune is kept for the
// next fill.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if !atEOF {
		if tail := incompleteTail(data); tail > 0 {
			s.pending = append(s.pending, data[len(data)-tail:]...)
			data = data[:len(data)-tail]
		}
	}
	if utf8.Valid(data) {
		return len(data)
	}

	w := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		w += copy(data[w:], data[i:i+size])
		i += size
	}
	return w
}

// incompleteTail reports how many trailing bytes start a rune that is not
// yet complete.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b&0xC0 == 0x80 {
			continue
		}
		if b < 0xC0 {
			return 0
		}
		want := 2
		switch {
		case b >= 0xF0:
			want = 4
		case b >= 0xE0:
			want = 3
		}
		if i < want {
			return i
		}
		return 0
	}
	return 0
}

// CountingReader counts bytes and fails with ErrTooLarge past Limit.
// A zero Limit disables the cap.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Limit     int64
}

// NewCountingReader wraps r with a byte counter and an optional cap.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{r: r, Limit: limit}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	if c.Limit > 0 && c.BytesRead > c.Limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.Limit)
	}
	return n, err
}

// WrapForStreaming strips the BOM, sanitizes UTF-8 and counts bytes,
// failing once limit is exceeded (0 means unlimited).
func WrapForStreaming(r io.Reader, limit int64) *CountingReader {
	return NewCountingReader(newUTF8Sanitizer(newBOMReader(r)), limit)
}
