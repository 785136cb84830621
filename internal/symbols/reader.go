package symbols

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mrpasztoradam/goadsym/internal/ads"
)

// blobReader walks a sequence of self-sized records. Every offset and length
// it sees comes from the device and is checked before slicing.
type blobReader struct {
	data []byte
	pos  int
}

func newBlobReader(data []byte) *blobReader {
	return &blobReader{data: data}
}

// next returns the record at the cursor and advances by its declared length.
func (r *blobReader) next(headerLength int) ([]byte, error) {
	if r.pos+4 > len(r.data) {
		return nil, fmt.Errorf("%w: record at offset %d truncated (blob is %d bytes)",
			ads.ErrMalformedSchema, r.pos, len(r.data))
	}

	entryLength := int(binary.LittleEndian.Uint32(r.data[r.pos : r.pos+4]))
	if entryLength < headerLength {
		return nil, fmt.Errorf("%w: record at offset %d declares length %d, header needs %d",
			ads.ErrMalformedSchema, r.pos, entryLength, headerLength)
	}
	if entryLength > len(r.data)-r.pos {
		return nil, fmt.Errorf("%w: record at offset %d declares length %d, only %d bytes left",
			ads.ErrMalformedSchema, r.pos, entryLength, len(r.data)-r.pos)
	}

	record := r.data[r.pos : r.pos+entryLength]
	r.pos += entryLength
	return record, nil
}

// offset returns the cursor position.
func (r *blobReader) offset() int {
	return r.pos
}

// recordReader reads fields out of a single record.
type recordReader struct {
	buf []byte
	pos int
}

func newRecordReader(record []byte, pos int) *recordReader {
	return &recordReader{buf: record, pos: pos}
}

func (r *recordReader) uint16At(off int) uint16 {
	return binary.LittleEndian.Uint16(r.buf[off : off+2])
}

func (r *recordReader) uint32At(off int) uint32 {
	return binary.LittleEndian.Uint32(r.buf[off : off+4])
}

// text reads n bytes plus the NUL terminator that follows them.
func (r *recordReader) text(what string, n int) (string, error) {
	end := r.pos + n
	if end+1 > len(r.buf) {
		return "", fmt.Errorf("%w: %s of %d bytes at %d exceeds record length %d",
			ads.ErrMalformedSchema, what, n, r.pos, len(r.buf))
	}

	raw := r.buf[r.pos:end]
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8: %q", ads.ErrMalformedSchema, what, raw)
	}

	r.pos = end + 1
	return strings.TrimSpace(strings.TrimRight(string(raw), "\x00")), nil
}

func (r *recordReader) skip(what string, n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return fmt.Errorf("%w: %s of %d bytes at %d exceeds record length %d",
			ads.ErrMalformedSchema, what, n, r.pos, len(r.buf))
	}
	r.pos += n
	return nil
}

func (r *recordReader) rest() []byte {
	return r.buf[r.pos:]
}
