// Package index implements the sidecar index format: a flat array of
// fixed-width (offset, length) entries that gives random access into a
// TFRecord file without re-scanning it. Conventionally stored alongside
// the indexed file with an .idx suffix.
package index

import (
	"encoding/binary"
	"io"

	"github.com/tfrecordio/tfrecord/errs"
	"github.com/tfrecordio/tfrecord/recordio"
)

// EntrySize is the on-disk width of one index entry: two little-endian
// uint64 fields.
const EntrySize = 16

var byteOrder = binary.LittleEndian

// Entry is one sidecar index record: the byte offset of a frame's length
// field within the indexed file, and the frame's total length (header,
// payload, and footer together).
type Entry struct {
	Offset uint64
	Length uint64
}

// Encode appends e's on-disk bytes to dst.
func Encode(dst []byte, e Entry) []byte {
	var b [EntrySize]byte
	byteOrder.PutUint64(b[0:8], e.Offset)
	byteOrder.PutUint64(b[8:16], e.Length)
	return append(dst, b[:]...)
}

// Decode reads one entry from the first EntrySize bytes of b.
func Decode(b []byte) Entry {
	return Entry{
		Offset: byteOrder.Uint64(b[0:8]),
		Length: byteOrder.Uint64(b[8:16]),
	}
}

// Build writes one index entry for every record produced by r's lazy
// Indices sequence, stopping at the first error (io.EOF is not an error
// here; it just ends the build cleanly). It is how a sidecar index file is
// produced from a sync reader positioned over a seekable source.
func Build(w io.Writer, r *recordio.Reader) error {
	for idx, err := range r.Indices() {
		if err != nil {
			return err
		}
		var b [EntrySize]byte
		byteOrder.PutUint64(b[0:8], uint64(idx.Offset))
		byteOrder.PutUint64(b[8:16], uint64(idx.Length))
		if _, err := w.Write(b[:]); err != nil {
			return errs.IO("writing index entry", err)
		}
	}
	return nil
}

// Reader is a finite, ordered, restartable sequence of index entries
// backed by a byte slice. The slice may come from an in-memory read or
// from a memory-mapped region (see Map); both yield identical values for
// the same underlying file, since the reader only ever does read-only
// byte-slice arithmetic.
type Reader struct {
	data []byte
}

// NewReader wraps data, the raw bytes of an index file, as a Reader. data
// is not copied; callers that want the reader to own its storage should
// pass a copy.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of entries in the index.
func (r *Reader) Len() int {
	return len(r.data) / EntrySize
}

// Get returns the entry at position i. It returns an OutOfRange error if i
// is not in [0, Len()).
func (r *Reader) Get(i int) (Entry, error) {
	n := r.Len()
	if i < 0 || i >= n {
		return Entry{}, errs.OutOfRange(i, n)
	}
	start := i * EntrySize
	return Decode(r.data[start : start+EntrySize]), nil
}

// All returns every entry in order.
func (r *Reader) All() []Entry {
	n := r.Len()
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		out[i], _ = r.Get(i)
	}
	return out
}
