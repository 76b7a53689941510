// Package frame implements the on-disk layout of a single TFRecord frame:
// an 8-byte length, a masked CRC-32C of the length, the payload itself, and
// a masked CRC-32C of the payload.
//
// This package only knows about byte layouts; it performs no I/O. The
// streaming reader and writer live in package recordio, and the async
// engines in package async assemble frames out of vectored reads using
// the same field sizes defined here.
package frame

import (
	"encoding/binary"

	"github.com/tfrecordio/tfrecord/crc32c"
	"github.com/tfrecordio/tfrecord/errs"
)

const (
	// LengthSize is the width, in bytes, of a record's length field.
	LengthSize = 8
	// CRCSize is the width, in bytes, of a masked CRC-32C field.
	CRCSize = 4
	// HeaderSize is the length field plus its CRC: the fixed-size prefix
	// that must be read before a payload's size is known.
	HeaderSize = LengthSize + CRCSize
	// Overhead is the total non-payload byte cost of one frame: the
	// header plus the trailing payload CRC.
	Overhead = HeaderSize + CRCSize

	// MaxLength bounds the length field so that a corrupted length can't
	// drive an unbounded allocation.
	MaxLength = 1 << 32
)

var byteOrder = binary.LittleEndian

// EncodeHeader returns the 12-byte length-plus-CRC prefix for a payload of
// the given length.
func EncodeHeader(length uint64) [HeaderSize]byte {
	var b [HeaderSize]byte
	byteOrder.PutUint64(b[:LengthSize], length)
	byteOrder.PutUint32(b[LengthSize:], crc32c.Masked(b[:LengthSize]))
	return b
}

// DecodeLength reads the length field out of a HeaderSize-byte header,
// without checking its CRC. b must be at least HeaderSize bytes.
func DecodeLength(b []byte) uint64 {
	return byteOrder.Uint64(b[:LengthSize])
}

// DecodeHeaderCRC reads the stored masked CRC of the length field out of a
// HeaderSize-byte header. b must be at least HeaderSize bytes.
func DecodeHeaderCRC(b []byte) uint32 {
	return byteOrder.Uint32(b[LengthSize:HeaderSize])
}

// VerifyHeader recomputes the masked CRC of the length bytes in b and
// compares it against the stored value, returning a ChecksumMismatch error
// on a mismatch.
func VerifyHeader(b []byte) error {
	expect := DecodeHeaderCRC(b)
	found := crc32c.Masked(b[:LengthSize])
	if expect != found {
		return errs.ChecksumMismatch("length", expect, found)
	}
	return nil
}

// EncodeFooter returns the masked CRC-32C of payload, as stored
// immediately after it in a frame.
func EncodeFooter(payload []byte) [CRCSize]byte {
	var b [CRCSize]byte
	byteOrder.PutUint32(b[:], crc32c.Masked(payload))
	return b
}

// DecodeFooter reads a CRCSize-byte footer.
func DecodeFooter(b []byte) uint32 {
	return byteOrder.Uint32(b[:CRCSize])
}

// VerifyFooter recomputes the masked CRC of payload and compares it
// against the stored footer value.
func VerifyFooter(payload []byte, footer []byte) error {
	expect := DecodeFooter(footer)
	found := crc32c.Masked(payload)
	if expect != found {
		return errs.ChecksumMismatch("payload", expect, found)
	}
	return nil
}

// CheckLength validates a decoded length before it is used to size an
// allocation or a read, returning a DataLoss error if it exceeds MaxLength.
func CheckLength(length uint64) error {
	if length > MaxLength {
		return errs.DataLoss("record length exceeds maximum allowed size")
	}
	return nil
}

// Encode returns the complete on-disk bytes for one record: header,
// payload, and footer.
func Encode(payload []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(payload)+CRCSize)
	header := EncodeHeader(uint64(len(payload)))
	out = append(out, header[:]...)
	out = append(out, payload...)
	footer := EncodeFooter(payload)
	out = append(out, footer[:]...)
	return out
}

// Size returns the total framed length (Overhead plus the payload) for a
// payload of the given length, i.e. the value stored in a sidecar index
// entry's length field.
func Size(payloadLen int) int {
	return Overhead + payloadLen
}
