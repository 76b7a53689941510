package async

import (
	"errors"
	"io"
	"os"

	"github.com/tfrecordio/tfrecord/internal/metrics"
)

// FileReader drives mode A: one in-flight read at a time against a single
// file, alternating header-shape and body-shape submissions. It is the
// cheapest asynchronous mode, meant to be run by an outer thread pool
// fanning out over many files, one FileReader per file.
type FileReader struct {
	queue  *Queue
	ticket *fileTicket
	token  int
	err    error
}

// NewFileReader opens a depth-one reader over f. verify controls whether
// both CRCs are checked as records are delivered.
func NewFileReader(f *os.File, verify bool) *FileReader {
	return &FileReader{
		queue:  NewQueue("A", 1),
		ticket: newFileTicket(f, verify),
	}
}

// Next returns the next record's payload, blocking on the single
// outstanding read as needed. It returns io.EOF once the file is
// exhausted on a frame boundary.
func (fr *FileReader) Next() ([]byte, error) {
	if fr.err != nil {
		return nil, fr.err
	}

	if fr.ticket.done() {
		fr.err = io.EOF
		return nil, io.EOF
	}

	for {
		if err := fr.queue.Push(fr.ticket.submission(fr.token)); err != nil {
			fr.err = err
			return nil, err
		}
		c := fr.queue.Wait()

		payload, err := fr.ticket.onCompletion(c)
		if err != nil {
			if errors.Is(err, errNoMoreRecords) {
				fr.err = io.EOF
				return nil, io.EOF
			}
			fr.err = err
			return nil, err
		}
		if payload != nil {
			metrics.RecordsDelivered.WithLabelValues("A").Inc()
			return payload, nil
		}
		// A header-shape completion advanced state but produced no
		// payload; loop around to submit the body-shape read.
	}
}

// Close releases the reader's kernel queue, waiting for any in-flight read
// to finish so its buffers are never freed while the kernel might still
// reference them.
func (fr *FileReader) Close() error {
	return fr.queue.Close()
}
