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
	"math/bits"
	"sort"

	"github.com/colstore/columnar/internal/wire"
)

const wordsPerBlock = DenseBytes / 8 // 1024 64-bit words

// denseSet is a zero-copy view over an exactly-DenseBytes bitmap, plus an
// in-memory (never serialized) cumulative popcount table built once at
// Open time so Rank is a single table lookup plus one word's popcount, and
// Select can binary-search the table instead of scanning from the start.
// This is the "popcount table per 64-bit word" the spec calls for; nothing
// about it needs to be on disk since it is cheap to rebuild from the
// bitmap and doing so keeps the on-disk block fixed at exactly DenseBytes.
type denseSet struct {
	buf []byte     // len(buf) == DenseBytes
	cum []uint32   // len(cum) == wordsPerBlock+1; cum[i] = popcount of words[0:i)
}

// SerializeDense writes items (sorted ascending, unique, each < BlockRows)
// to dst as a DenseBytes bitmap and returns DenseBytes (a universal
// invariant from §10: the dense payload length never depends on
// population).
func SerializeDense(items []uint16, dst *wire.Buffer) int {
	var words [wordsPerBlock]uint64
	for _, v := range items {
		words[v/64] |= 1 << (v % 64)
	}
	for _, w := range words {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], w)
		dst.PutBytes(b[:])
	}
	return DenseBytes
}

// OpenDense wraps a dense block's bytes without copying them, eagerly
// building the cumulative popcount table (a fixed 1024-entry scan,
// independent of population).
func OpenDense(buf []byte) Set {
	d := &denseSet{buf: buf, cum: make([]uint32, wordsPerBlock+1)}
	var total uint32
	for i := 0; i < wordsPerBlock; i++ {
		d.cum[i] = total
		total += uint32(bits.OnesCount64(d.word(i)))
	}
	d.cum[wordsPerBlock] = total
	return d
}

func (d *denseSet) word(i int) uint64 {
	return binary.LittleEndian.Uint64(d.buf[8*i:])
}

func (d *denseSet) Len() int { return int(d.cum[wordsPerBlock]) }

func (d *denseSet) Contains(off uint16) bool {
	w := d.word(int(off) / 64)
	return w&(1<<(off%64)) != 0
}

func (d *denseSet) RankBelow(off uint16) uint16 {
	wordIdx := int(off) / 64
	bit := off % 64
	low := d.word(wordIdx) & ((uint64(1) << bit) - 1)
	return uint16(d.cum[wordIdx] + uint32(bits.OnesCount64(low)))
}

// wordForRank returns the index of the word containing the r-th set bit,
// i.e. the largest wordIdx such that cum[wordIdx] <= r.
func (d *denseSet) wordForRank(r uint16) int {
	// sort.Search finds the first index where cum[i] > r; the word we want
	// is the one just before that.
	i := sort.Search(wordsPerBlock+1, func(i int) bool { return d.cum[i] > uint32(r) })
	return i - 1
}

// selectWithinWord returns the position of the (localRank)-th set bit of w
// (0-indexed), offset by wordIdx*64.
func selectWithinWord(wordIdx int, w uint64, localRank uint16) uint16 {
	for i := uint16(0); ; i++ {
		bit := bits.TrailingZeros64(w)
		if i == localRank {
			return uint16(wordIdx*64 + bit)
		}
		w &= w - 1 // clear the lowest set bit
	}
}

func (d *denseSet) Select(r uint16) uint16 {
	if int(r) >= d.Len() {
		panic("optionalindex: Select index out of range")
	}
	wordIdx := d.wordForRank(r)
	return selectWithinWord(wordIdx, d.word(wordIdx), r-uint16(d.cum[wordIdx]))
}

// SelectIter resolves ranks (sorted non-decreasing) in a single forward
// pass over the bitmap's words: since ranks never decrease, the word
// satisfying rank r can never be earlier than the word satisfying the
// previous rank, so the scan never backtracks.
func (d *denseSet) SelectIter(ranks []uint16) []uint16 {
	out := make([]uint16, len(ranks))
	wordIdx := 0
	for i, r := range ranks {
		for wordIdx+1 < wordsPerBlock && d.cum[wordIdx+1] <= uint32(r) {
			wordIdx++
		}
		out[i] = selectWithinWord(wordIdx, d.word(wordIdx), r-uint16(d.cum[wordIdx]))
	}
	return out
}
