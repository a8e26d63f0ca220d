// Package varint implements the unsigned LEB128 varint encoding used for CAR
// section length prefixes and is the basis the rest of the codec builds its
// framing on.
package varint

import (
	"errors"
	"io"

	mvarint "github.com/multiformats/go-varint"
)

// ErrMalformedVarint is returned when a varint does not terminate within 10
// bytes, overflows 64 bits, or the input ends before a terminal byte is seen.
var ErrMalformedVarint = errors.New("malformed varint")

// maxVarintBytes bounds how many continuation bytes we will read before
// declaring a varint malformed; 10 bytes cover the full 64-bit range with
// LEB128's 7 bits per byte.
const maxVarintBytes = 10

// byteReader adapts an io.Reader lacking ReadByte into one that has it,
// mirroring the shape every CAR reader in the pack feeds to binary.ReadUvarint.
type byteReader struct {
	io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(b.Reader, b.buf[:])
	if err != nil {
		return 0, err
	}
	return b.buf[0], nil
}

// ReadUvarint decodes a varint from r, enforcing a 10-byte cap and 64-bit
// range. io.EOF is only returned when no bytes at all
// were read; a truncated varint yields ErrMalformedVarint.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	var x uint64
	var s uint
	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i == 0 && err == io.EOF {
				return 0, io.EOF
			}
			return 0, ErrMalformedVarint
		}
		if b < 0x80 {
			if i == maxVarintBytes-1 && b > 1 {
				return 0, ErrMalformedVarint // would overflow 64 bits
			}
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, ErrMalformedVarint
}

// ReadUvarintFromReader is a convenience wrapper for readers that do not
// already implement io.ByteReader.
func ReadUvarintFromReader(r io.Reader) (uint64, error) {
	if br, ok := r.(io.ByteReader); ok {
		return ReadUvarint(br)
	}
	return ReadUvarint(&byteReader{Reader: r})
}

// AppendUvarint writes the shortest encoding of x to buf and returns the
// result, delegating to multiformats/go-varint which the rest of the pack
// (go-car, go-unixfsnode) already uses for this.
func AppendUvarint(buf []byte, x uint64) []byte {
	return append(buf, mvarint.ToUvarint(x)...)
}

// Size returns the number of bytes the varint encoding of x occupies.
func Size(x uint64) int {
	return mvarint.UvarintSize(x)
}
