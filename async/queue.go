package async

import (
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/tfrecordio/tfrecord/errs"
	"github.com/tfrecordio/tfrecord/internal/metrics"
)

// Submission describes one vectored positional read: fill iovecs, in
// order, starting at offset in fd, and report the result against ticket
// when done.
type Submission struct {
	Ticket int
	FD     int
	Offset int64
	IOVecs [][]byte
}

// Completion reports the outcome of a Submission. N is the total bytes
// read across all of its iovecs; a short read (N less than the sum of the
// iovec lengths) is not itself an error.
type Completion struct {
	Ticket int
	N      int
	Err    error
}

// Queue is the engine's completion-based kernel interface: callers Push
// submissions (fallibly, bounded by depth) and Wait for completions one at
// a time, in the order they finish rather than the order they were
// pushed — exactly the SQ/CQ contract an io_uring-backed engine would
// present, implemented here with a depth-bounded errgroup.Group and
// vectored preadv reads.
//
// Not safe for concurrent use by multiple goroutines, beyond the internal
// worker goroutines it manages itself.
type Queue struct {
	mode        string
	depth       int
	group       errgroup.Group
	completions chan Completion
	mu          sync.Mutex
	inflight    int
}

// NewQueue returns a Queue that allows up to depth reads in flight at
// once, labeling its Prometheus metrics with mode (e.g. "A", "B", "C",
// "D").
func NewQueue(mode string, depth int) *Queue {
	q := &Queue{
		mode:        mode,
		depth:       depth,
		completions: make(chan Completion, depth),
	}
	q.group.SetLimit(depth)
	return q
}

// Push submits sub for execution. It fails with SubmissionPushFailed,
// leaving sub for the caller to retry later, if depth concurrent reads
// are already outstanding.
func (q *Queue) Push(sub Submission) error {
	q.mu.Lock()
	if q.inflight >= q.depth {
		q.mu.Unlock()
		return errs.SubmissionPushFailed("read queue at capacity")
	}
	q.inflight++
	metrics.QueueInflight.WithLabelValues(q.mode).Set(float64(q.inflight))
	q.mu.Unlock()

	metrics.ReadsSubmitted.WithLabelValues(q.mode).Inc()
	q.group.Go(func() error {
		n, err := unix.Preadv(sub.FD, sub.IOVecs, sub.Offset)

		// Stop counting the read as outstanding before its completion
		// becomes visible to Wait, so a Push issued right after Wait
		// returns is never rejected on account of this read.
		q.mu.Lock()
		q.inflight--
		metrics.QueueInflight.WithLabelValues(q.mode).Set(float64(q.inflight))
		q.mu.Unlock()

		q.completions <- Completion{Ticket: sub.Ticket, N: n, Err: translateReadError(err)}
		return nil
	})
	return nil
}

// Wait blocks until at least one completion is ready and returns it. It
// must not be called after Close.
func (q *Queue) Wait() Completion {
	return <-q.completions
}

// Inflight reports the number of reads currently outstanding.
func (q *Queue) Inflight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight
}

// Close waits for every outstanding read to finish before returning, so
// that a caller dropping the engine never frees ticket buffers while the
// kernel might still be writing into them.
func (q *Queue) Close() error {
	_ = q.group.Wait()
	return nil
}

func translateReadError(err error) error {
	if err == nil {
		return nil
	}
	return errs.IO("vectored read", err)
}
