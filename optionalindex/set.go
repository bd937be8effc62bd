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

// Package optionalindex implements the two-level dense/sparse bitset codec
// backing Optional-cardinality columns (§4.E): the row space is split into
// fixed 65,536-row blocks, each independently encoded as either a dense
// 8 KiB bitmap or a sparse sorted list of 16-bit offsets, with a directory
// of cumulative ranks tying the blocks together into one Rank/Select
// surface spanning the whole column.
package optionalindex

// BlockRows is the number of rows covered by a single block.
const BlockRows = 1 << 16

// DenseThreshold is the population at or above which a block is encoded
// densely rather than sparsely.
const DenseThreshold = 4096

// DenseBytes is the fixed size in bytes of a dense block's bitmap
// (BlockRows bits).
const DenseBytes = BlockRows / 8

// Tag values identify which codec encoded a block, stored in the block
// directory.
const (
	TagSparse byte = 0
	TagDense  byte = 1
)

// Set is the shared contract between the dense and sparse block codecs
// (the "SetCodec" of §4.E): a sorted set of uint16 coordinates supporting
// membership, rank and select.
type Set interface {
	// Len returns the set's population.
	Len() int
	// Contains reports whether off is a member.
	Contains(off uint16) bool
	// RankBelow returns the number of members strictly less than off,
	// regardless of whether off itself is a member.
	RankBelow(off uint16) uint16
	// Select returns the r-th member (0-indexed). Select panics if
	// r >= Len(); per §4.E this is a usage error, not a decode error.
	Select(r uint16) uint16
	// SelectIter returns Select(r) for every r in ranks, which must be
	// sorted non-decreasing. Implementations exploit the monotonicity to
	// avoid restarting the scan from the beginning for every rank.
	SelectIter(ranks []uint16) []uint16
}

// RankIfExists returns (RankBelow(off), true) if off is a member of s, or
// (0, false) otherwise.
func RankIfExists(s Set, off uint16) (uint16, bool) {
	if !s.Contains(off) {
		return 0, false
	}
	return s.RankBelow(off), true
}
