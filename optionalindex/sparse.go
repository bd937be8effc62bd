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

package optionalindex

import (
	"encoding/binary"
	"sort"

	"github.com/colstore/columnar/internal/wire"
)

// sparseSet is a zero-copy view over p little-endian uint16 values, used
// for blocks whose population is below DenseThreshold.
type sparseSet struct {
	buf []byte // len(buf) == 2*p
}

// SerializeSparse writes items (sorted ascending, unique) to dst as p
// little-endian uint16 values and returns the number of bytes written,
// which is always exactly 2*len(items) (tested as a universal invariant in
// §10).
func SerializeSparse(items []uint16, dst *wire.Buffer) int {
	for _, v := range items {
		dst.PutByte(byte(v))
		dst.PutByte(byte(v >> 8))
	}
	return 2 * len(items)
}

// OpenSparse wraps a sparse block's bytes without copying them. buf must
// have even length; the caller (the block directory) is responsible for
// slicing exactly 2*p bytes before calling this.
func OpenSparse(buf []byte) Set {
	return sparseSet{buf: buf}
}

func (s sparseSet) Len() int { return len(s.buf) / 2 }

func (s sparseSet) at(i int) uint16 {
	return binary.LittleEndian.Uint16(s.buf[2*i:])
}

func (s sparseSet) Contains(off uint16) bool {
	_, ok := s.search(off)
	return ok
}

// search returns the position of off if present, and the insertion point
// (the count of elements less than off) either way.
func (s sparseSet) search(off uint16) (pos int, ok bool) {
	n := s.Len()
	i := sort.Search(n, func(i int) bool { return s.at(i) >= off })
	if i < n && s.at(i) == off {
		return i, true
	}
	return i, false
}

func (s sparseSet) RankBelow(off uint16) uint16 {
	pos, _ := s.search(off)
	return uint16(pos)
}

func (s sparseSet) Select(r uint16) uint16 {
	if int(r) >= s.Len() {
		panic("optionalindex: Select index out of range")
	}
	return s.at(int(r))
}

func (s sparseSet) SelectIter(ranks []uint16) []uint16 {
	out := make([]uint16, len(ranks))
	for i, r := range ranks {
		out[i] = s.Select(r)
	}
	return out
}
