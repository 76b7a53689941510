package async

import (
	"errors"
	"os"

	"github.com/tfrecordio/tfrecord/errs"
	"github.com/tfrecordio/tfrecord/frame"
)

// shape tags a fileTicket's current outstanding submission as one of the
// two iovec layouts modes A and B use: header-shape or body-shape. (The
// third layout, mode C's whole-record-shape, belongs to indexedTicket and
// needs no tag.) Modeling it as an explicit tag, rather than inferring it
// from how many iovecs happen to be in flight, keeps OnHeader/OnBody from
// guessing.
type shape int

const (
	shapeHeader shape = iota
	shapeBody
)

// fileTicket is the per-file state shared by modes A and B: both read one
// file's frames as an alternating header-shape then body-shape submission,
// decoding, verifying, and delivering a payload each time a body-shape
// submission completes.
type fileTicket struct {
	file   *os.File
	offset int64
	verify bool
	shape  shape
	atEOF  bool

	// headerBuf holds the current record's length field and its CRC,
	// contiguous as they are on disk, so they can be verified as one
	// HeaderSize-byte slice without copying.
	headerBuf     [frame.HeaderSize]byte
	payload       []byte
	payloadCRCBuf [frame.CRCSize]byte
	// nextHeaderBuf holds the following record's header, read
	// speculatively as part of a body-shape submission so that a body
	// completion can immediately decide whether the file has more
	// records without a further round trip.
	nextHeaderBuf [frame.HeaderSize]byte

	length uint64
}

// newFileTicket returns a ticket ready to submit its first (header-shape)
// read at file offset 0.
func newFileTicket(f *os.File, verify bool) *fileTicket {
	return &fileTicket{file: f, verify: verify, shape: shapeHeader}
}

// submission returns the Submission this ticket currently wants issued,
// tagged with token as its correlation index.
func (t *fileTicket) submission(token int) Submission {
	switch t.shape {
	case shapeHeader:
		return Submission{
			Ticket: token,
			FD:     int(t.file.Fd()),
			Offset: t.offset,
			IOVecs: [][]byte{t.headerBuf[:frame.LengthSize], t.headerBuf[frame.LengthSize:]},
		}
	default: // shapeBody
		t.growPayload(int(t.length))
		return Submission{
			Ticket: token,
			FD:     int(t.file.Fd()),
			Offset: t.offset + frame.HeaderSize,
			IOVecs: [][]byte{
				t.payload[:t.length],
				t.payloadCRCBuf[:],
				t.nextHeaderBuf[:frame.LengthSize],
				t.nextHeaderBuf[frame.LengthSize:],
			},
		}
	}
}

// onCompletion processes a completion for this ticket's current
// submission and returns a delivered payload, if any. A nil payload with
// a nil error means the ticket advanced without producing a record (the
// normal outcome of a header-shape completion).
func (t *fileTicket) onCompletion(c Completion) ([]byte, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	switch t.shape {
	case shapeHeader:
		return t.onHeader(c.N)
	default:
		return t.onBody(c.N)
	}
}

// onHeader handles the completion of a header-shape read: a zero-byte
// result is clean end of file, a partial result is a truncated file, and
// otherwise the length is decoded, optionally verified, and the ticket
// moves to body-shape.
func (t *fileTicket) onHeader(n int) ([]byte, error) {
	if n == 0 {
		t.atEOF = true
		return nil, errNoMoreRecords
	}
	if n < frame.HeaderSize {
		return nil, errs.DataLoss("truncated record header")
	}

	if t.verify {
		if err := frame.VerifyHeader(t.headerBuf[:]); err != nil {
			return nil, err
		}
	}

	t.length = frame.DecodeLength(t.headerBuf[:])
	if err := frame.CheckLength(t.length); err != nil {
		return nil, err
	}

	t.shape = shapeBody
	return nil, nil
}

// onBody handles the completion of a body-shape read: it delivers the
// current record's payload and, using the next header that was read
// speculatively alongside it, either advances to another body-shape
// submission or discovers end of file.
func (t *fileTicket) onBody(n int) ([]byte, error) {
	want := int(t.length) + frame.CRCSize + frame.HeaderSize
	if n < int(t.length)+frame.CRCSize {
		// A short read partway through a record is treated as a clean
		// end of stream rather than an error: the partial bytes are
		// discarded and no more submissions are issued for this file.
		t.atEOF = true
		return nil, errNoMoreRecords
	}

	payload := t.payload[:t.length]
	if t.verify {
		if err := frame.VerifyFooter(payload, t.payloadCRCBuf[:]); err != nil {
			return nil, err
		}
	}

	out := make([]byte, t.length)
	copy(out, payload)

	t.offset += int64(frame.HeaderSize) + int64(t.length) + frame.CRCSize

	if n < want {
		// The speculative next header wasn't (fully) there: this was the
		// last record in the file. Remember that so the caller stops
		// submitting for this ticket, but still deliver the payload we
		// just read.
		t.atEOF = true
		return out, nil
	}

	// The next header arrived for free; use it in place of a fresh
	// header-shape read.
	t.headerBuf = t.nextHeaderBuf
	if t.verify {
		if err := frame.VerifyHeader(t.headerBuf[:]); err != nil {
			return out, err
		}
	}
	t.length = frame.DecodeLength(t.headerBuf[:])
	if err := frame.CheckLength(t.length); err != nil {
		return out, err
	}
	t.shape = shapeBody
	return out, nil
}

// done reports whether this ticket's file has already delivered its last
// record (or hit a clean EOF with none pending): true here means the
// caller must not submit another read for this ticket.
func (t *fileTicket) done() bool {
	return t.atEOF
}

func (t *fileTicket) growPayload(n int) {
	if cap(t.payload) >= n {
		t.payload = t.payload[:cap(t.payload)]
		return
	}
	t.payload = make([]byte, 2*n+1)
}

// errNoMoreRecords is a private sentinel used between onHeader/onBody and
// their engine loops to signal a clean end of file; it never escapes the
// async package and is not an errs.Error, since end of file is not a
// failure.
var errNoMoreRecords = errors.New("async: no more records")
