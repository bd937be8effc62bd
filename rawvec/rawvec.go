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

// Package rawvec implements the narrow value-vector contract the container
// serializer calls into for a column's actual value payload: a fixed-width
// little-endian encoding of the column's values, already coerced into the
// uint64 (or, for IP addresses, 128-bit) domain by the caller.
//
// It is intentionally the simplest codec satisfying the contract described
// in SPEC_FULL.md §4.G — no bit-packing, no frame-of-reference delta, no
// dictionary of its own — so that every round-trip in this repository
// exercises a real codec rather than a mock. A production deployment is
// expected to supply a denser codec behind the same two function-pointer
// shaped contracts (SerializeU64/OpenU64 and SerializeU128/OpenU128); this
// package is simply the one concrete instance the rest of the engine is
// wired to today.
package rawvec

import (
	"encoding/binary"

	"github.com/colstore/columnar/internal/wire"
)

// SerializeU64 writes values as a fixed-width vector: a uvarint count
// followed by 8 little-endian bytes per value. It returns the number of
// bytes written.
func SerializeU64(values []uint64, dst *wire.Buffer) int {
	start := dst.Len()
	dst.PutUvarint(uint64(len(values)))
	for _, v := range values {
		dst.PutUint64(v)
	}
	return dst.Len() - start
}

// U64Reader is a zero-copy view over a SerializeU64 payload.
type U64Reader struct {
	buf []byte
	n   int
}

// OpenU64 parses a SerializeU64 payload from the front of buf, returning
// the reader and the number of bytes consumed.
func OpenU64(buf []byte) (*U64Reader, int, error) {
	count, n := wire.Uvarint(buf)
	if n == 0 {
		return nil, 0, errShortVector
	}
	need := n + 8*int(count)
	if len(buf) < need {
		return nil, 0, errShortVector
	}
	return &U64Reader{buf: buf[n:need], n: int(count)}, need, nil
}

// Len returns the number of values in the vector.
func (r *U64Reader) Len() int { return r.n }

// Get returns the i-th value.
func (r *U64Reader) Get(i int) uint64 {
	return binary.LittleEndian.Uint64(r.buf[8*i:])
}

// SerializeU128 writes values (each a 16-byte big-endian IPv6 address, the
// representation used throughout this package for IP-address columns) as a
// uvarint count followed by 16 raw bytes per value.
func SerializeU128(values [][16]byte, dst *wire.Buffer) int {
	start := dst.Len()
	dst.PutUvarint(uint64(len(values)))
	for _, v := range values {
		dst.PutBytes(v[:])
	}
	return dst.Len() - start
}

// U128Reader is a zero-copy view over a SerializeU128 payload.
type U128Reader struct {
	buf []byte
	n   int
}

// OpenU128 parses a SerializeU128 payload from the front of buf.
func OpenU128(buf []byte) (*U128Reader, int, error) {
	count, n := wire.Uvarint(buf)
	if n == 0 {
		return nil, 0, errShortVector
	}
	need := n + 16*int(count)
	if len(buf) < need {
		return nil, 0, errShortVector
	}
	return &U128Reader{buf: buf[n:need], n: int(count)}, need, nil
}

// Len returns the number of values in the vector.
func (r *U128Reader) Len() int { return r.n }

// Get returns the i-th value.
func (r *U128Reader) Get(i int) [16]byte {
	var v [16]byte
	copy(v[:], r.buf[16*i:16*i+16])
	return v
}
