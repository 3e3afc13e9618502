package core

// streaming.go provides reader wrappers applied to uploaded CSV bytes before
// parsing:
//
//   - BOM skipping: spreadsheet exports on Windows prefix UTF-8 files with
//     0xEF 0xBB 0xBF, which would otherwise end up in the first header name
//   - UTF-8 sanitizing: Latin-1 player names ("Müller" saved by an old tool)
//     become '?' instead of breaking downstream consumers
//   - Byte counting: reports how far through the upload the parser is
//
// Use WrapForStreaming to apply all three in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewBOMSkippingReader returns a reader that drops a leading UTF-8 BOM.
func NewBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as it reads.
// Valid multi-byte sequences split across reads are passed through intact.
type UTF8Sanitizer struct {
	br      *bufio.Reader
	pending []byte
}

// NewUTF8Sanitizer creates a sanitizing reader.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) > 0 {
			c := copy(p[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}

		r, size, err := s.br.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}

		var buf [utf8.UTFMax]byte
		w := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			s.pending = append([]byte(nil), buf[c:w]...)
		}
	}
	return n, nil
}

// CountingReader tracks bytes read for progress reporting.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	pct := int(r.BytesRead * 100 / r.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// WrapForStreaming strips the BOM, sanitizes UTF-8 and counts bytes. The
// BOM must go first: sanitizing would otherwise see it as ordinary text.
func WrapForStreaming(r io.Reader, totalSize int64) *CountingReader {
	return NewCountingReader(NewUTF8Sanitizer(NewBOMSkippingReader(r)), totalSize)
}
