// Copyright (C) 2024 The columnar Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package wire holds the low-level byte-buffer primitives shared by the
// dictionary term block, the container directory and the value vectors:
// a growable byte buffer plus a compact MSB-continuation uvarint encoding.
// It carries no knowledge of any higher-level framing.
package wire

import "math/bits"

// Buffer is a growable byte buffer with uvarint helpers. The zero value is
// ready to use.
type Buffer struct {
	buf []byte
}

// Bytes returns the buffer's current contents. The slice is invalidated by
// the next call to a mutating method.
func (b *Buffer) Bytes() []byte { return b.buf }

// Reset empties the buffer without releasing its backing array.
func (b *Buffer) Reset() { b.buf = b.buf[:0] }

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.buf) }

// grow returns the next n bytes of the buffer, extending it as needed.
func (b *Buffer) grow(n int) []byte {
	off := len(b.buf)
	if cap(b.buf)-off >= n {
		b.buf = b.buf[:off+n]
	} else {
		nb := make([]byte, off+n, n+2*off)
		copy(nb, b.buf)
		b.buf = nb
	}
	return b.buf[off:]
}

// UvarintSize returns the number of bytes PutUvarint would write for v.
func UvarintSize(v uint64) int {
	// oring in 1 makes bits.Len64 return 1 for v == 0, matching the one
	// byte a zero uvarint actually occupies.
	return (bits.Len64(v|1) + 6) / 7
}

// PutUvarint appends v to the buffer using a 7-bits-per-byte, MSB
// continuation-bit encoding (the high bit is set on the LAST byte of the
// group, not the first, matching the teacher's own ion varint encoding so
// that decoding can detect the end of a multi-byte integer without
// backtracking).
func (b *Buffer) PutUvarint(v uint64) {
	n := UvarintSize(v)
	dst := b.grow(n)
	for i := n - 1; i >= 0; i-- {
		dst[i] = byte(v & 0x7f)
		v >>= 7
	}
	dst[n-1] |= 0x80
}

// PutByte appends a single byte.
func (b *Buffer) PutByte(v byte) {
	b.buf = append(b.buf, v)
}

// PutBytes appends raw bytes verbatim.
func (b *Buffer) PutBytes(v []byte) {
	copy(b.grow(len(v)), v)
}

// PutUint32 appends v as 4 little-endian bytes.
func (b *Buffer) PutUint32(v uint32) {
	dst := b.grow(4)
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

// PutUint64 appends v as 8 little-endian bytes.
func (b *Buffer) PutUint64(v uint64) {
	dst := b.grow(8)
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

// Uvarint decodes a uvarint encoded by PutUvarint from the front of buf,
// returning the value and the number of bytes consumed. It returns (0, 0)
// if buf does not contain a complete uvarint.
func Uvarint(buf []byte) (uint64, int) {
	var v uint64
	for i, c := range buf {
		v = v<<7 | uint64(c&0x7f)
		if c&0x80 != 0 {
			return v, i + 1
		}
	}
	return 0, 0
}
