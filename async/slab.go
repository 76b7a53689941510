// Package async implements the asynchronous, kernel-batched read engine:
// a stable-index ticket slab, a submission/completion queue modeled on an
// SQ/CQ pair, and four delivery modes (depth-one per file, multi-file
// interleaved, indexed random access, and whole-file chunk reordering)
// built on top of it.
//
// Go has no io_uring binding in wide use, so the completion-queue
// abstraction here is built from bounded goroutines (golang.org/x/sync's
// errgroup, limited to queue depth) issuing vectored positional reads via
// golang.org/x/sys/unix.Preadv, rather than a literal io_uring submission
// ring. The submission/completion contract — fallible push, drain-and-wait,
// ticket-owned iovec storage — is preserved; only the kernel interface
// underneath it is swapped for the nearest idiomatic Go equivalent. There
// is no pending list: a submission that Queue.Push rejects is not kept
// anywhere, and the error goes back to the mode that pushed it.
package async

import "github.com/tfrecordio/tfrecord/errs"

// Slab is a stable-index map holding up to depth in-flight tickets. An
// inserted ticket keeps the same index for its entire lifetime; that
// index is the correlation token threaded through submission and
// completion.
type Slab[T any] struct {
	depth int
	slots []*T
	free  []int
	used  int
}

// NewSlab returns an empty slab with room for depth concurrent tickets.
func NewSlab[T any](depth int) *Slab[T] {
	s := &Slab[T]{
		depth: depth,
		slots: make([]*T, depth),
		free:  make([]int, depth),
	}
	for i := 0; i < depth; i++ {
		s.free[i] = depth - 1 - i
	}
	return s
}

// Depth returns the slab's fixed capacity.
func (s *Slab[T]) Depth() int { return s.depth }

// Len returns the number of tickets currently in use.
func (s *Slab[T]) Len() int { return s.used }

// Full reports whether every slot is occupied.
func (s *Slab[T]) Full() bool { return s.used == s.depth }

// Insert places v into a free slot and returns its index. It returns
// SubmissionPushFailed if the slab is already at depth.
func (s *Slab[T]) Insert(v T) (int, error) {
	if len(s.free) == 0 {
		return 0, errs.SubmissionPushFailed("ticket slab at queue depth")
	}
	i := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	s.slots[i] = &v
	s.used++
	return i, nil
}

// Get returns the ticket at index i, or nil if that slot is free.
func (s *Slab[T]) Get(i int) *T {
	return s.slots[i]
}

// Free releases the ticket at index i, making the slot available again.
func (s *Slab[T]) Free(i int) {
	if s.slots[i] == nil {
		return
	}
	s.slots[i] = nil
	s.free = append(s.free, i)
	s.used--
}
