package async

import (
	"errors"
	"os"

	"github.com/tfrecordio/tfrecord/internal/metrics"
)

// Result is one step of a MultiFileReader's output: either a payload, or a
// per-file error. A per-file error does not stop the engine — the file
// that produced it is dropped and the next file from the source takes its
// slot — so callers that want to know a failure happened, without it
// being fatal to the whole run, read Err off the Result instead of
// getting it back from Next itself.
type Result struct {
	Payload []byte
	Err     error
}

// MultiFileReader drives mode B: up to depth files make progress at once,
// each behind its own fileTicket, pulled lazily from source. Delivery
// order is not guaranteed across files but is preserved within each file.
type MultiFileReader struct {
	queue  *Queue
	slab   *Slab[fileTicket]
	source func() (*os.File, bool)
	verify bool
	done   bool
}

// NewMultiFileReader returns a reader that keeps up to depth files
// progressing concurrently, pulling new files from source as earlier ones
// finish. source returns (nil, false) once exhausted.
func NewMultiFileReader(depth int, verify bool, source func() (*os.File, bool)) *MultiFileReader {
	mr := &MultiFileReader{
		queue:  NewQueue("B", depth),
		slab:   NewSlab[fileTicket](depth),
		source: source,
		verify: verify,
	}
	mr.fill()
	return mr
}

// fill tops the slab up to its depth by pulling files from source and
// submitting each one's first (header-shape) read.
func (mr *MultiFileReader) fill() {
	for !mr.slab.Full() {
		f, ok := mr.source()
		if !ok {
			return
		}
		t := newFileTicket(f, mr.verify)
		idx, err := mr.slab.Insert(t)
		if err != nil {
			// Slab reported full between the Full() check and here: put
			// the file back isn't possible with a pull-only source, so
			// this can't actually happen given the loop guard above.
			return
		}
		ticket := mr.slab.Get(idx)
		if err := mr.queue.Push(ticket.submission(idx)); err != nil {
			mr.slab.Free(idx)
			return
		}
	}
}

// Next returns one Result, or (Result{}, false) once every file has been
// exhausted and the source has nothing left to offer.
func (mr *MultiFileReader) Next() (Result, bool) {
	for {
		if mr.slab.Len() == 0 {
			if !mr.done {
				mr.fill()
				if mr.slab.Len() == 0 {
					mr.done = true
					return Result{}, false
				}
				continue
			}
			return Result{}, false
		}

		c := mr.queue.Wait()
		ticket := mr.slab.Get(c.Ticket)
		payload, err := ticket.onCompletion(c)

		if err != nil {
			if errors.Is(err, errNoMoreRecords) {
				mr.retire(c.Ticket)
				continue
			}
			mr.retire(c.Ticket)
			return Result{Err: err}, true
		}

		if payload != nil {
			if ticket.done() {
				mr.retire(c.Ticket)
			} else if pushErr := mr.queue.Push(ticket.submission(c.Ticket)); pushErr != nil {
				mr.retire(c.Ticket)
			}
			metrics.RecordsDelivered.WithLabelValues("B").Inc()
			return Result{Payload: payload}, true
		}

		// Header-shape completion: immediately submit the body-shape read
		// for the same ticket.
		if pushErr := mr.queue.Push(ticket.submission(c.Ticket)); pushErr != nil {
			mr.retire(c.Ticket)
		}
	}
}

// retire frees a ticket's slot and pulls a replacement file from source,
// if one is available.
func (mr *MultiFileReader) retire(token int) {
	mr.slab.Free(token)
	f, ok := mr.source()
	if !ok {
		return
	}
	t := newFileTicket(f, mr.verify)
	idx, err := mr.slab.Insert(t)
	if err != nil {
		return
	}
	ticket := mr.slab.Get(idx)
	if err := mr.queue.Push(ticket.submission(idx)); err != nil {
		mr.slab.Free(idx)
	}
}

// Close releases the reader's kernel queue, waiting for every in-flight
// read to finish.
func (mr *MultiFileReader) Close() error {
	return mr.queue.Close()
}
