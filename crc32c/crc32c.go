// Package crc32c implements the masked CRC-32C checksum used to protect
// every field of a TFRecord frame.
//
// The checksum is CRC-32 with the Castagnoli polynomial, rotated and
// offset so that the common case of all-zero data and an all-zero
// checksum does not look valid:
// https://github.com/tensorflow/tensorboard/blob/ae7d0b9250f5986dd0f0c238fcaf3c8d7f4312ca/tensorboard/compat/tensorflow_stub/pywrap_tensorflow.py#L39-L41
package crc32c

import "hash/crc32"

var table = crc32.MakeTable(crc32.Castagnoli)

// mask is added, with 32-bit wraparound, to the rotated checksum.
const mask uint32 = 0xa282ead8

// Checksum is an in-progress Castagnoli CRC-32 value.
//
// The zero value is the checksum of an empty slice and can be extended
// with Update, which makes it convenient to checksum a buffer that is
// assembled in multiple pieces (e.g. a record's length field followed by
// its payload) without concatenating them first.
type Checksum uint32

// Update extends the checksum with b and returns the new value.
func (c Checksum) Update(b []byte) Checksum {
	return Checksum(crc32.Update(uint32(c), table, b))
}

// Mask applies the rotate-and-offset transform that is stored on disk.
func (c Checksum) Mask() uint32 {
	v := uint32(c)
	return ((v >> 15) | (v << 17)) + mask
}

// Masked computes the masked CRC-32C of b in one call.
func Masked(b []byte) uint32 {
	return Checksum(0).Update(b).Mask()
}

// Unmask reverses Mask, recovering the raw CRC-32C value. It is mostly
// useful for diagnostics; verification should prefer comparing masked
// values directly, as Masked does.
func Unmask(masked uint32) uint32 {
	rot := masked - mask
	return (rot << 15) | (rot >> 17)
}
