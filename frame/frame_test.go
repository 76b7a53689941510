package frame_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfrecordio/tfrecord/frame"
)

func TestEncodeDecodeHello(t *testing.T) {
	payload := []byte("hello")
	encoded := frame.Encode(payload)

	require.Len(t, encoded, frame.Overhead+len(payload))

	assert.Equal(t, []byte{0x05, 0, 0, 0, 0, 0, 0, 0}, encoded[:frame.LengthSize])

	require.NoError(t, frame.VerifyHeader(encoded[:frame.HeaderSize]))
	require.Equal(t, uint64(5), frame.DecodeLength(encoded[:frame.HeaderSize]))

	got := encoded[frame.HeaderSize : frame.HeaderSize+len(payload)]
	assert.Equal(t, payload, got)

	footer := encoded[frame.HeaderSize+len(payload):]
	require.NoError(t, frame.VerifyFooter(payload, footer))
}

func TestVerifyHeaderDetectsBitFlip(t *testing.T) {
	encoded := frame.Encode([]byte("payload"))
	encoded[frame.LengthSize] ^= 0xFF // flip a byte in the header CRC
	assert.Error(t, frame.VerifyHeader(encoded[:frame.HeaderSize]))
}

func TestCheckLengthRejectsOversized(t *testing.T) {
	assert.NoError(t, frame.CheckLength(frame.MaxLength))
	assert.Error(t, frame.CheckLength(frame.MaxLength+1))
}

func TestSize(t *testing.T) {
	assert.Equal(t, 16, frame.Size(0))
	assert.Equal(t, 17, frame.Size(1))
}

func TestEmptyPayloadRoundTrips(t *testing.T) {
	encoded := frame.Encode(nil)
	require.Len(t, encoded, frame.Overhead)
	require.NoError(t, frame.VerifyHeader(encoded[:frame.HeaderSize]))
	require.NoError(t, frame.VerifyFooter(nil, encoded[frame.HeaderSize:]))
}
