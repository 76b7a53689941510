package async

import (
	"io"
	"os"

	"github.com/tfrecordio/tfrecord/errs"
	"github.com/tfrecordio/tfrecord/frame"
	"github.com/tfrecordio/tfrecord/index"
	"github.com/tfrecordio/tfrecord/internal/metrics"
)

// indexedTicket is the whole-record-shape state for mode C: unlike modes A
// and B, there is no per-ticket state machine — every completion yields
// exactly one payload, verified against the four regions read in the same
// submission.
type indexedTicket struct {
	entry         index.Entry
	headerBuf     [frame.HeaderSize]byte
	payload       []byte
	payloadCRCBuf [frame.CRCSize]byte
}

// IndexedReader drives mode C: given a file and its sidecar index, it
// issues one vectored read per record, up to depth in flight, advancing
// through the index in whatever order the caller supplies it in (so a
// shuffled index gives a shuffled read order, per the frame's random-
// access contract).
type IndexedReader struct {
	file   *os.File
	idx    *index.Reader
	verify bool
	depth  int

	queue  *Queue
	slab   *Slab[indexedTicket]
	order  []int // index positions, in the order records should be submitted
	cursor int
	err    error
}

// NewIndexedReader returns a mode C reader over file using idx as its
// sidecar index, submitting records in index order 0..idx.Len()-1.
func NewIndexedReader(file *os.File, idx *index.Reader, depth int, verify bool) *IndexedReader {
	order := make([]int, idx.Len())
	for i := range order {
		order[i] = i
	}
	return NewIndexedReaderOrder(file, idx, depth, verify, order)
}

// NewIndexedReaderOrder is like NewIndexedReader but takes an explicit
// submission order, e.g. a shuffled or reversed permutation of
// [0, idx.Len()).
func NewIndexedReaderOrder(file *os.File, idx *index.Reader, depth int, verify bool, order []int) *IndexedReader {
	ir := &IndexedReader{
		file:   file,
		idx:    idx,
		verify: verify,
		depth:  depth,
		queue:  NewQueue("C", depth),
		slab:   NewSlab[indexedTicket](depth),
		order:  order,
	}
	ir.fill()
	return ir
}

func (ir *IndexedReader) fill() {
	for !ir.slab.Full() && ir.cursor < len(ir.order) {
		pos := ir.order[ir.cursor]
		ir.cursor++

		entry, err := ir.idx.Get(pos)
		if err != nil {
			ir.err = err
			return
		}

		t := indexedTicket{entry: entry}
		idx, err := ir.slab.Insert(t)
		if err != nil {
			return
		}
		ticket := ir.slab.Get(idx)
		ticket.payload = make([]byte, entry.Length-uint64(frame.Overhead))

		sub := Submission{
			Ticket: idx,
			FD:     int(ir.file.Fd()),
			Offset: int64(entry.Offset),
			IOVecs: [][]byte{
				ticket.headerBuf[:frame.LengthSize],
				ticket.headerBuf[frame.LengthSize:],
				ticket.payload,
				ticket.payloadCRCBuf[:],
			},
		}
		if err := ir.queue.Push(sub); err != nil {
			ir.slab.Free(idx)
			ir.cursor--
			return
		}
	}
}

// Next returns the next record's payload, in whatever order this reader's
// index order dictates. It returns io.EOF once every entry has been
// delivered.
func (ir *IndexedReader) Next() ([]byte, error) {
	if ir.err != nil {
		return nil, ir.err
	}

	for {
		if ir.slab.Len() == 0 {
			if ir.err != nil {
				return nil, ir.err
			}
			return nil, io.EOF
		}

		c := ir.queue.Wait()
		ticket := ir.slab.Get(c.Ticket)

		want := int(ticket.entry.Length)
		if c.Err != nil {
			ir.err = c.Err
			ir.slab.Free(c.Ticket)
			return nil, ir.err
		}
		if c.N < want {
			ir.err = errs.DataLoss("short read on indexed record")
			ir.slab.Free(c.Ticket)
			return nil, ir.err
		}

		if ir.verify {
			if err := frame.VerifyHeader(ticket.headerBuf[:]); err != nil {
				ir.err = err
				ir.slab.Free(c.Ticket)
				return nil, err
			}
			if err := frame.VerifyFooter(ticket.payload, ticket.payloadCRCBuf[:]); err != nil {
				ir.err = err
				ir.slab.Free(c.Ticket)
				return nil, err
			}
		}

		payload := ticket.payload
		ir.slab.Free(c.Ticket)
		ir.fill()
		metrics.RecordsDelivered.WithLabelValues("C").Inc()
		return payload, nil
	}
}

// Close releases the reader's kernel queue, waiting for every in-flight
// read to finish.
func (ir *IndexedReader) Close() error {
	return ir.queue.Close()
}
