package async

import "container/heap"

// chunk is one completed, possibly short, fixed-size read from a mode D
// chunk reader, tagged with its starting file offset so the heap below
// can reorder out-of-order completions back into stream order.
type chunk struct {
	offset int64
	data   []byte
}

// chunkHeapData is a min-heap of chunks ordered by offset, implementing
// container/heap.Interface the same way the sampler package's priority
// queue does.
type chunkHeapData []chunk

func (d chunkHeapData) Len() int            { return len(d) }
func (d chunkHeapData) Less(i, j int) bool  { return d[i].offset < d[j].offset }
func (d chunkHeapData) Swap(i, j int)       { d[i], d[j] = d[j], d[i] }
func (d *chunkHeapData) Push(x any)         { *d = append(*d, x.(chunk)) }
func (d *chunkHeapData) Pop() any {
	old := *d
	n := len(old)
	item := old[n-1]
	*d = old[:n-1]
	return item
}

// chunkHeap reorders chunks arriving in arbitrary completion order back
// into strictly ascending offset order. Push is O(log n); Pop only
// succeeds once the minimum element's offset matches the caller's
// expected next offset, so gaps in the heap are never silently skipped.
type chunkHeap struct {
	data chunkHeapData
}

func newChunkHeap() *chunkHeap {
	h := &chunkHeap{}
	heap.Init(&h.data)
	return h
}

func (h *chunkHeap) push(c chunk) {
	heap.Push(&h.data, c)
}

// popIfNext returns and removes the minimum chunk if its offset equals
// want, reporting false otherwise (including when the heap is empty).
func (h *chunkHeap) popIfNext(want int64) (chunk, bool) {
	if h.data.Len() == 0 || h.data[0].offset != want {
		return chunk{}, false
	}
	return heap.Pop(&h.data).(chunk), true
}
