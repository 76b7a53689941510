package recordio

import (
	"io"

	"github.com/tfrecordio/tfrecord/frame"
)

// flusher is implemented by sinks that buffer writes in memory, such as
// *bufio.Writer. Writer detects it with a type assertion rather than
// requiring it in NewWriter's signature, so that callers can hand it a
// plain *os.File just as easily as a buffered wrapper around one.
type flusher interface {
	Flush() error
}

// Writer writes a sequence of frames to any io.Writer. It is append-only:
// it never rewrites or seeks backward, and has no notion of replacing or
// truncating a previously written record.
//
// Not safe for concurrent use.
type Writer struct {
	w       io.Writer
	written int64
}

// NewWriter returns a Writer appending frames to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write appends one record holding payload, returning the number of bytes
// written to the underlying sink (frame.Size(len(payload))).
func (wr *Writer) Write(payload []byte) (int, error) {
	encoded := frame.Encode(payload)
	n, err := wr.w.Write(encoded)
	wr.written += int64(n)
	return n, err
}

// Written returns the cumulative number of bytes appended to the sink
// across all calls to Write.
func (wr *Writer) Written() int64 {
	return wr.written
}

// Flush forces the sink to commit any in-memory buffering, if it supports
// that. It is a no-op against a sink with no such buffering (e.g. an
// unbuffered *os.File). Flush does not imply fsync-equivalent durability;
// nothing at this layer does.
func (wr *Writer) Flush() error {
	if f, ok := wr.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
