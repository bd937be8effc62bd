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
	"fmt"
	"sort"

	"github.com/colstore/columnar/internal/wire"
)

type blockEntry struct {
	set     Set
	cumRank uint32
}

// Index is the read-side view of a serialized Optional column index: a
// directory of fixed-size blocks, each independently dense or sparse, tied
// together by cumulative rank so Rank/Select/Contains behave as if the
// whole row space were one flat bitset.
type Index struct {
	blocks []blockEntry
	total  uint32
}

// Build partitions present (the sorted, deduplicated row ids that have a
// value, which is already how a column's NewDoc rows arrive) into
// BlockRows-sized blocks, picks dense or sparse per block by population,
// and writes the full wire payload described in §6:
//
//	[ num_blocks:u32_le ]
//	[ directory: per-block (codec_tag:u8, payload_offset:u32_le, cumulative_rank:u32_le) ]
//	[ block payloads, contiguous ]
//
// numRows is the size of the row space the index must cover (the
// container's global num_docs); present must only contain row ids less
// than numRows. denseThreshold is the per-block population at or above
// which a block is encoded densely rather than sparsely; callers normally
// pass DenseThreshold, but a Config-supplied value overrides it.
func Build(present []uint32, numRows uint32, denseThreshold int, dst *wire.Buffer) {
	numBlocks := (numRows + BlockRows - 1) / BlockRows

	type built struct {
		tag     byte
		cumRank uint32
		items   []uint16
	}
	blocks := make([]built, numBlocks)

	idx := 0
	var cum uint32
	for b := uint32(0); b < numBlocks; b++ {
		lo := b * BlockRows
		hi := lo + BlockRows
		var items []uint16
		for idx < len(present) && present[idx] < hi {
			items = append(items, uint16(present[idx]-lo))
			idx++
		}
		tag := TagSparse
		if len(items) >= denseThreshold {
			tag = TagDense
		}
		blocks[b] = built{tag: tag, cumRank: cum, items: items}
		cum += uint32(len(items))
	}

	dst.PutUint32(numBlocks)

	// directory: we need payload offsets, which requires knowing each
	// block's serialized size up front. Dense is always DenseBytes;
	// sparse is 2*len(items).
	var offset uint32
	for _, bl := range blocks {
		dst.PutByte(bl.tag)
		dst.PutUint32(offset)
		dst.PutUint32(bl.cumRank)
		if bl.tag == TagDense {
			offset += DenseBytes
		} else {
			offset += uint32(2 * len(bl.items))
		}
	}
	for _, bl := range blocks {
		if bl.tag == TagDense {
			SerializeDense(bl.items, dst)
		} else {
			SerializeSparse(bl.items, dst)
		}
	}
}

// Open parses a wire payload written by Build, returning the Index and the
// number of bytes consumed.
func Open(buf []byte) (*Index, int, error) {
	if len(buf) < 4 {
		return nil, 0, errShort
	}
	numBlocks := binary.LittleEndian.Uint32(buf)
	off := 4

	type dirRow struct {
		tag     byte
		payload uint32
		cum     uint32
	}
	rows := make([]dirRow, numBlocks)
	for b := range rows {
		if off+9 > len(buf) {
			return nil, 0, errShort
		}
		rows[b].tag = buf[off]
		rows[b].payload = binary.LittleEndian.Uint32(buf[off+1:])
		rows[b].cum = binary.LittleEndian.Uint32(buf[off+5:])
		off += 9
	}

	payloadStart := off
	idx := &Index{blocks: make([]blockEntry, numBlocks)}
	var total uint32
	for b, row := range rows {
		var size uint32
		switch row.tag {
		case TagDense:
			size = DenseBytes
		case TagSparse:
			// the sparse block's length is implied by the next block's
			// payload offset (or the end of buf for the last block).
			if b+1 < len(rows) {
				size = rows[b+1].payload - row.payload
			} else {
				size = uint32(len(buf)-payloadStart) - row.payload
			}
		default:
			return nil, 0, fmt.Errorf("optionalindex: %w: tag=%d", errShort, row.tag)
		}
		start := payloadStart + int(row.payload)
		end := start + int(size)
		if end > len(buf) {
			return nil, 0, errShort
		}
		var set Set
		if row.tag == TagDense {
			set = OpenDense(buf[start:end])
		} else {
			set = OpenSparse(buf[start:end])
		}
		idx.blocks[b] = blockEntry{set: set, cumRank: row.cum}
		total = row.cum + uint32(set.Len())
		off = end
	}
	idx.total = total
	return idx, off, nil
}

// Total returns the number of present rows across the whole index.
func (idx *Index) Total() uint32 { return idx.total }

// Contains reports whether row has a value.
func (idx *Index) Contains(row uint32) bool {
	b := row / BlockRows
	if int(b) >= len(idx.blocks) {
		return false
	}
	return idx.blocks[b].set.Contains(uint16(row % BlockRows))
}

// Rank returns the number of present rows strictly less than row.
func (idx *Index) Rank(row uint32) uint32 {
	b := row / BlockRows
	if int(b) >= len(idx.blocks) {
		b = uint32(len(idx.blocks))
		if b == 0 {
			return 0
		}
		last := idx.blocks[b-1]
		return last.cumRank + uint32(last.set.Len())
	}
	entry := idx.blocks[b]
	return entry.cumRank + uint32(entry.set.RankBelow(uint16(row%BlockRows)))
}

// Select returns the row holding the r-th present value (0-indexed). It
// panics if r >= Total(), per §4.E: "select(r) where r >= total is a usage
// error".
func (idx *Index) Select(r uint32) uint32 {
	if r >= idx.total {
		panic("optionalindex: Select index out of range")
	}
	b := sort.Search(len(idx.blocks), func(i int) bool {
		next := idx.total
		if i+1 < len(idx.blocks) {
			next = idx.blocks[i+1].cumRank
		}
		return next > r
	})
	entry := idx.blocks[b]
	local := entry.set.Select(uint16(r - entry.cumRank))
	return uint32(b)*BlockRows + uint32(local)
}
