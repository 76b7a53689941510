package async

import (
	"fmt"
	"io"
)

// BufferedReader adapts a sequence of variable-length byte buffers,
// pulled one at a time from next, into the same blocking read-into-slice
// contract as any io.Reader — in particular, the one package recordio's
// synchronous Reader expects. It is how mode D's reordered chunk stream
// is fed into the frame parser.
//
// Internal state is just the current buffer, an offset within it, and an
// end-of-stream flag; bytes are preserved across buffer boundaries the
// same way io.Reader implementations normally do. pos tracks the total
// number of bytes delivered so far, which lets BufferedReader answer
// Seek(0, io.SeekCurrent) — the only query recordio.Reader's Indices
// method ever makes — without needing true random access into the
// chunk stream.
type BufferedReader struct {
	next func() ([]byte, error)

	buf    []byte
	offset int
	atEOF  bool
	pos    int64
}

// NewBufferedReader returns a BufferedReader pulling its buffers from
// next. next should return io.EOF once no more buffers remain.
func NewBufferedReader(next func() ([]byte, error)) *BufferedReader {
	return &BufferedReader{next: next}
}

// Read fills p as fully as possible, pulling additional buffers via next
// as needed, and returns 0, io.EOF only once the underlying sequence is
// truly exhausted.
func (r *BufferedReader) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		if r.offset >= len(r.buf) {
			if r.atEOF {
				break
			}
			buf, err := r.next()
			if err != nil {
				if err == io.EOF {
					r.atEOF = true
					break
				}
				return total, err
			}
			r.buf = buf
			r.offset = 0
			if len(r.buf) == 0 {
				continue
			}
		}

		n := copy(p[total:], r.buf[r.offset:])
		r.offset += n
		total += n
	}

	r.pos += int64(total)
	if total == 0 && r.atEOF {
		return 0, io.EOF
	}
	return total, nil
}

// Seek supports only the (0, io.SeekCurrent) query used by
// recordio.Reader.Indices to observe its position before and after each
// record; it reports the total number of bytes delivered by Read so far.
// Any other offset or whence is rejected, since BufferedReader has no way
// to rewind or skip ahead in a chunk stream that has already been
// consumed and discarded.
func (r *BufferedReader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent && offset == 0 {
		return r.pos, nil
	}
	return 0, fmt.Errorf("async: BufferedReader only supports Seek(0, io.SeekCurrent), got Seek(%d, %d)", offset, whence)
}

// ChunkFed reports that this reader's bytes are assembled from mode D's
// reordered chunk stream rather than a single contiguous source.
// recordio.Reader type-asserts for this structurally, rather than
// importing package async directly, to attribute delivered records to
// mode D's metric without creating an import cycle (async already
// depends on recordio through package index).
func (r *BufferedReader) ChunkFed() bool { return true }
