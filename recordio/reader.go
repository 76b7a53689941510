// Package recordio implements the synchronous, streaming TFRecord reader
// and writer: the reference implementation and fallback that the
// asynchronous engines in package async exist to outrun.
package recordio

import (
	"errors"
	"io"

	"github.com/tfrecordio/tfrecord/errs"
	"github.com/tfrecordio/tfrecord/frame"
	"github.com/tfrecordio/tfrecord/internal/metrics"
)

// chunkFed is implemented by sources that assemble their bytes from mode
// D's reordered chunk stream (async.BufferedReader). Reader detects it
// with a structural type assertion, rather than importing package async
// directly, since async already depends on recordio through package
// index and a direct import the other way would cycle.
type chunkFed interface {
	ChunkFed() bool
}

// Reader reads a sequence of frames from any io.Reader, one at a time.
//
// It reuses three scratch buffers across calls to Next: one for the
// 12-byte header, one for the payload CRC, and one for the payload
// itself. The payload buffer grows monotonically, doubling the requested
// length whenever the current record doesn't fit, so that a file of
// growing record sizes does not reallocate on every call. Next always
// returns a fresh copy of exactly length bytes; the scratch buffer is
// never exposed to the caller.
//
// Not safe for concurrent use.
type Reader struct {
	r       io.Reader
	verify  bool
	chunked bool

	headerBuf [frame.HeaderSize]byte
	footerBuf [frame.CRCSize]byte
	payload   []byte

	err error
}

// NewReader returns a Reader over r with checksum verification enabled.
func NewReader(r io.Reader) *Reader {
	_, chunked := r.(chunkFed)
	return &Reader{r: r, verify: true, chunked: chunked}
}

// SetVerify toggles CRC verification at runtime. Verification is on by
// default.
func (rd *Reader) SetVerify(verify bool) {
	rd.verify = verify
}

// Next reads and returns the next record's payload.
//
// It returns io.EOF when the source is exhausted on a frame boundary. Any
// other non-nil error, including a short read partway through a frame, is
// permanent: once Next returns a non-EOF error, every subsequent call
// returns that same error.
func (rd *Reader) Next() ([]byte, error) {
	if rd.err != nil {
		return nil, rd.err
	}

	payload, err := rd.next()
	if err != nil {
		rd.err = err
	}
	return payload, err
}

func (rd *Reader) next() ([]byte, error) {
	if _, err := io.ReadFull(rd.r, rd.headerBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			// A clean EOF right at a frame boundary is the end of the
			// stream, not an error.
			return nil, io.EOF
		}
		// Anything else, including io.ErrUnexpectedEOF from a partial
		// header, means a frame started but did not finish.
		return nil, errs.DataLoss("truncated record header: " + err.Error())
	}

	if rd.verify {
		if err := frame.VerifyHeader(rd.headerBuf[:]); err != nil {
			return nil, err
		}
	}

	length := frame.DecodeLength(rd.headerBuf[:])
	if err := frame.CheckLength(length); err != nil {
		return nil, err
	}

	rd.growPayload(int(length))
	payload := rd.payload[:length]
	if length > 0 {
		if _, err := io.ReadFull(rd.r, payload); err != nil {
			return nil, errs.DataLoss("truncated record payload: " + err.Error())
		}
	}

	if _, err := io.ReadFull(rd.r, rd.footerBuf[:]); err != nil {
		return nil, errs.DataLoss("truncated record footer: " + err.Error())
	}

	if rd.verify {
		if err := frame.VerifyFooter(payload, rd.footerBuf[:]); err != nil {
			return nil, err
		}
	}

	out := make([]byte, length)
	copy(out, payload)

	if rd.chunked {
		// This Reader is consuming mode D's chunk stream, which has no
		// per-record delivery point of its own; attribute the delivered
		// record to mode D here instead.
		metrics.RecordsDelivered.WithLabelValues("D").Inc()
	}
	return out, nil
}

// growPayload ensures rd.payload has capacity for at least n bytes,
// doubling the requested size to amortize repeated growth.
func (rd *Reader) growPayload(n int) {
	if cap(rd.payload) >= n {
		rd.payload = rd.payload[:cap(rd.payload)]
		return
	}
	rd.payload = make([]byte, 2*n)
}
