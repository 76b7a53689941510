package async

import (
	"io"
	"os"
)

// chunkTicket is the per-submission state for mode D: just the buffer the
// chunk lands in and the file offset it was read from, since there is no
// record framing at this layer — that's the sync reader's job, fed
// through a BufferedReader.
type chunkTicket struct {
	offset int64
	buf    []byte
}

// ChunkReader drives mode D: it reads a single file as contiguous,
// fixed-size chunks with up to depth in flight, reorders completions back
// into ascending offset order with a min-heap, and exposes the result as
// a simple pull sequence of byte slices — meant to be wrapped in a
// BufferedReader and handed to a recordio.Reader.
type ChunkReader struct {
	file      *os.File
	chunkSize int

	queue *Queue
	slab  *Slab[chunkTicket]
	heap  *chunkHeap

	submitOffset  int64
	deliverOffset int64
	tailOffset    int64 // -1 until a short or zero read reveals EOF

	err error
}

// NewChunkReader returns a reader over file, reading chunkSize-byte
// chunks with up to depth outstanding at once.
func NewChunkReader(file *os.File, chunkSize, depth int) *ChunkReader {
	cr := &ChunkReader{
		file:       file,
		chunkSize:  chunkSize,
		queue:      NewQueue("D", depth),
		slab:       NewSlab[chunkTicket](depth),
		heap:       newChunkHeap(),
		tailOffset: -1,
	}
	cr.fill()
	return cr
}

// fill tops the slab up to its depth, submitting sequential chunk reads
// until the file's end is known to have already been submitted for.
func (cr *ChunkReader) fill() {
	for !cr.slab.Full() {
		if cr.tailOffset >= 0 && cr.submitOffset > cr.tailOffset {
			return
		}
		t := chunkTicket{offset: cr.submitOffset, buf: make([]byte, cr.chunkSize)}
		idx, err := cr.slab.Insert(t)
		if err != nil {
			return
		}
		ticket := cr.slab.Get(idx)
		sub := Submission{
			Ticket: idx,
			FD:     int(cr.file.Fd()),
			Offset: ticket.offset,
			IOVecs: [][]byte{ticket.buf},
		}
		if err := cr.queue.Push(sub); err != nil {
			cr.slab.Free(idx)
			return
		}
		cr.submitOffset += int64(cr.chunkSize)
	}
}

// Next returns the next chunk in strictly ascending offset order. It
// returns io.EOF once the tail chunk (and every read still outstanding
// past it) has been accounted for.
func (cr *ChunkReader) Next() ([]byte, error) {
	if cr.err != nil {
		return nil, cr.err
	}

	for {
		if c, ok := cr.heap.popIfNext(cr.deliverOffset); ok {
			cr.deliverOffset += int64(len(c.data))
			if len(c.data) == 0 {
				return nil, io.EOF
			}
			return c.data, nil
		}

		if cr.slab.Len() == 0 {
			return nil, io.EOF
		}

		comp := cr.queue.Wait()
		ticket := cr.slab.Get(comp.Ticket)
		cr.slab.Free(comp.Ticket)

		if comp.Err != nil {
			cr.err = comp.Err
			return nil, cr.err
		}

		if comp.N < cr.chunkSize && (cr.tailOffset < 0 || ticket.offset < cr.tailOffset) {
			cr.tailOffset = ticket.offset
		}
		if cr.tailOffset >= 0 && ticket.offset > cr.tailOffset {
			// Spurious read past the now-known end of file; discard.
			continue
		}

		cr.heap.push(chunk{offset: ticket.offset, data: ticket.buf[:comp.N]})
		cr.fill()
	}
}

// BufferedReader returns a BufferedReader pulling chunks from this
// ChunkReader, suitable for handing to recordio.NewReader.
func (cr *ChunkReader) BufferedReader() *BufferedReader {
	return NewBufferedReader(cr.Next)
}

// Close releases the reader's kernel queue, waiting for every in-flight
// read to finish.
func (cr *ChunkReader) Close() error {
	return cr.queue.Close()
}
