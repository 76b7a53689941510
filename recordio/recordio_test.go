package recordio_test

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfrecordio/tfrecord/errs"
	"github.com/tfrecordio/tfrecord/frame"
	"github.com/tfrecordio/tfrecord/internal/metrics"
	"github.com/tfrecordio/tfrecord/recordio"
)

// chunkFedReader is a minimal stand-in for async.BufferedReader: an
// io.Reader that also reports ChunkFed() true, the way mode D's adapter
// does, so Reader's mode D metric attribution can be tested without an
// import of package async (which would cycle back through package index).
type chunkFedReader struct {
	io.Reader
}

func (chunkFedReader) ChunkFed() bool { return true }

func TestReaderAttributesChunkFedSourceToModeD(t *testing.T) {
	var buf bytes.Buffer
	w := recordio.NewWriter(&buf)
	_, err := w.Write([]byte("chunked"))
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.RecordsDelivered.WithLabelValues("D"))

	r := recordio.NewReader(chunkFedReader{Reader: bytes.NewReader(buf.Bytes())})
	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("chunked"), got)

	after := testutil.ToFloat64(metrics.RecordsDelivered.WithLabelValues("D"))
	assert.Equal(t, before+1, after)
}

func TestWriteThenRead(t *testing.T) {
	var buf bytes.Buffer
	w := recordio.NewWriter(&buf)

	records := [][]byte{[]byte("hello"), []byte(""), []byte("a second, longer record")}
	for _, rec := range records {
		n, err := w.Write(rec)
		require.NoError(t, err)
		assert.Equal(t, frame.Size(len(rec)), n)
	}
	require.NoError(t, w.Flush())
	assert.Equal(t, int64(buf.Len()), w.Written())

	r := recordio.NewReader(&buf)
	for _, want := range records {
		got, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterFlushesBufferedSink(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	w := recordio.NewWriter(bw)

	_, err := w.Write([]byte("buffered"))
	require.NoError(t, err)
	assert.Zero(t, buf.Len(), "bufio.Writer should not have flushed to buf yet")

	require.NoError(t, w.Flush())
	assert.NotZero(t, buf.Len())
}

func TestReaderSurfacesChecksumMismatch(t *testing.T) {
	encoded := frame.Encode([]byte("payload"))
	encoded[len(encoded)-1] ^= 0xFF // flip a byte in the footer

	r := recordio.NewReader(bytes.NewReader(encoded))
	_, err := r.Next()
	assert.True(t, errs.IsChecksumMismatch(err))

	// the error is sticky
	_, err2 := r.Next()
	assert.Equal(t, err, err2)
}

func TestReaderSetVerifyFalseSkipsChecksums(t *testing.T) {
	encoded := frame.Encode([]byte("payload"))
	encoded[len(encoded)-1] ^= 0xFF

	r := recordio.NewReader(bytes.NewReader(encoded))
	r.SetVerify(false)
	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestReaderDetectsTruncatedPayload(t *testing.T) {
	encoded := frame.Encode([]byte("payload"))
	truncated := encoded[:len(encoded)-frame.CRCSize-3] // cut inside the payload

	r := recordio.NewReader(bytes.NewReader(truncated))
	_, err := r.Next()
	assert.True(t, errs.IsDataLoss(err))
}

func TestIndicesMatchRecordOffsets(t *testing.T) {
	var buf bytes.Buffer
	w := recordio.NewWriter(&buf)
	records := [][]byte{[]byte("one"), []byte("two-longer"), []byte("")}
	for _, rec := range records {
		_, err := w.Write(rec)
		require.NoError(t, err)
	}

	r := recordio.NewReader(bytes.NewReader(buf.Bytes()))
	var got []recordio.Index
	for idx, err := range r.Indices() {
		require.NoError(t, err)
		got = append(got, idx)
	}

	require.Len(t, got, len(records))
	var wantOffset int64
	for i, rec := range records {
		assert.Equal(t, wantOffset, got[i].Offset)
		assert.Equal(t, int64(frame.Size(len(rec))), got[i].Length)
		wantOffset += int64(frame.Size(len(rec)))
	}
}

func TestIndicesRequiresSeekableSource(t *testing.T) {
	r := recordio.NewReader(bytes.NewBufferString("not seekable"))
	for _, err := range r.Indices() {
		assert.ErrorIs(t, err, recordio.ErrNotSeekable)
	}
}
