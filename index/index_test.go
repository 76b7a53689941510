package index_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfrecordio/tfrecord/errs"
	"github.com/tfrecordio/tfrecord/index"
	"github.com/tfrecordio/tfrecord/recordio"
)

func writeTFRecords(t *testing.T, payloads [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := recordio.NewWriter(&buf)
	for _, p := range payloads {
		_, err := w.Write(p)
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func TestBuildThenReadIndex(t *testing.T) {
	payloads := [][]byte{[]byte(""), []byte("a"), []byte("bb"), []byte("ccc")}
	data := writeTFRecords(t, payloads)

	r := recordio.NewReader(bytes.NewReader(data))
	var idxBuf bytes.Buffer
	require.NoError(t, index.Build(&idxBuf, r))

	reader := index.NewReader(idxBuf.Bytes())
	require.Equal(t, len(payloads), reader.Len())

	var offset uint64
	for i, p := range payloads {
		entry, err := reader.Get(i)
		require.NoError(t, err)
		assert.Equal(t, offset, entry.Offset)
		assert.Equal(t, uint64(16+len(p)), entry.Length)
		offset += entry.Length
	}
}

func TestGetOutOfRange(t *testing.T) {
	reader := index.NewReader(nil)
	_, err := reader.Get(0)
	assert.True(t, errs.IsOutOfRange(err))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := index.Entry{Offset: 160000, Length: 49995000}
	b := index.Encode(nil, e)
	require.Len(t, b, index.EntrySize)
	assert.Equal(t, e, index.Decode(b))
}

func TestMappedReaderMatchesInMemory(t *testing.T) {
	payloads := [][]byte{[]byte("one"), []byte("two-longer"), []byte("")}
	data := writeTFRecords(t, payloads)

	r := recordio.NewReader(bytes.NewReader(data))
	var idxBuf bytes.Buffer
	require.NoError(t, index.Build(&idxBuf, r))

	dir := t.TempDir()
	path := filepath.Join(dir, "records.tfrecord.idx")
	require.NoError(t, os.WriteFile(path, idxBuf.Bytes(), 0o644))

	mapped, err := index.Map(path)
	require.NoError(t, err)
	defer mapped.Close()

	inMemory := index.NewReader(idxBuf.Bytes())
	require.Equal(t, inMemory.Len(), mapped.Len())
	for i := 0; i < inMemory.Len(); i++ {
		want, err := inMemory.Get(i)
		require.NoError(t, err)
		got, err := mapped.Get(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMapEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.idx")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	mapped, err := index.Map(path)
	require.NoError(t, err)
	defer mapped.Close()
	assert.Equal(t, 0, mapped.Len())
}
