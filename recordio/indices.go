package recordio

import (
	"errors"
	"io"
	"iter"
)

// ErrNotSeekable is returned by Indices when the reader's underlying
// source does not implement io.Seeker.
var ErrNotSeekable = errors.New("recordio: source does not support positioning")

// Index is one sidecar index entry: the byte offset of a record's header
// (its 8-byte length field) within the source, and the record's total
// framed length (header + payload + footer).
type Index struct {
	Offset int64
	Length int64
}

// Indices returns a lazy sequence of (offset, total length) pairs, one per
// record, built by observing the source's position before and after
// reading each record. The source must implement io.Seeker; if it does
// not, the first iteration step yields ErrNotSeekable.
//
// This is how the sidecar indexer (package index) is built: range over
// the returned sequence, writing one entry per record, and stop at the
// first non-nil error. A clean end of the source is not yielded as an
// error; the sequence simply ends.
func (rd *Reader) Indices() iter.Seq2[Index, error] {
	return func(yield func(Index, error) bool) {
		seeker, ok := rd.r.(io.Seeker)
		if !ok {
			yield(Index{}, ErrNotSeekable)
			return
		}

		for {
			start, err := seeker.Seek(0, io.SeekCurrent)
			if err != nil {
				yield(Index{}, err)
				return
			}

			_, err = rd.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(Index{}, err)
				}
				return
			}

			end, err := seeker.Seek(0, io.SeekCurrent)
			if err != nil {
				yield(Index{}, err)
				return
			}

			if !yield(Index{Offset: start, Length: end - start}, nil) {
				return
			}
		}
	}
}
