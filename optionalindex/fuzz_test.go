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

//go:build go1.18

package optionalindex

import (
	"encoding/binary"
	"testing"

	"github.com/colstore/columnar/internal/wire"
)

// rowsFromFuzz turns an arbitrary fuzz byte string into a sorted,
// deduplicated list of row ids in [0, numRows), the same shape a real
// column's present rows take.
func rowsFromFuzz(data []byte, numRows uint32) []uint32 {
	seen := make(map[uint32]bool)
	var rows []uint32
	for i := 0; i+4 <= len(data); i += 4 {
		r := binary.LittleEndian.Uint32(data[i:]) % numRows
		if !seen[r] {
			seen[r] = true
			rows = append(rows, r)
		}
	}
	// insertion sort: fuzz inputs are tiny, and Build requires sorted input.
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j-1] > rows[j]; j-- {
			rows[j-1], rows[j] = rows[j], rows[j-1]
		}
	}
	return rows
}

// FuzzDenseSparseRankSelect rebuilds a two-block Index from arbitrary fuzz
// bytes and checks that Contains/Rank/Select agree with a plain map built
// from the same row set, across both the Dense and Sparse per-block
// codecs and across the block-boundary rows (0, BlockRows-1, BlockRows,
// 2*BlockRows-1) where the directory's cumulative-rank bookkeeping is
// easiest to get wrong.
func FuzzDenseSparseRankSelect(f *testing.F) {
	const numRows = 2 * BlockRows
	f.Add([]byte{})
	f.Add([]byte{0, 0, 0, 0})                   // row 0
	f.Add([]byte{255, 255, 0, 0})                // row BlockRows-1 (65535)
	f.Add([]byte{0, 0, 1, 0})                    // row BlockRows (65536)
	f.Add([]byte{255, 255, 1, 0})                // row 2*BlockRows-1 (131071)
	f.Add([]byte{0, 0, 0, 0, 255, 255, 1, 0})    // first and last row together
	f.Fuzz(func(t *testing.T, data []byte) {
		rows := rowsFromFuzz(data, numRows)

		for _, threshold := range []int{1, DenseThreshold} {
			var buf wire.Buffer
			Build(rows, numRows, threshold, &buf)
			idx, n, err := Open(buf.Bytes())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if n != buf.Len() {
				t.Fatalf("Open consumed %d of %d bytes", n, buf.Len())
			}
			if int(idx.Total()) != len(rows) {
				t.Fatalf("Total() = %d, want %d", idx.Total(), len(rows))
			}
			for rank, row := range rows {
				if !idx.Contains(row) {
					t.Fatalf("Contains(%d) = false, want true", row)
				}
				if got := idx.Rank(row); int(got) != rank {
					t.Fatalf("Rank(%d) = %d, want %d", row, got, rank)
				}
				if got := idx.Select(uint32(rank)); got != row {
					t.Fatalf("Select(%d) = %d, want %d", rank, got, row)
				}
			}
		}
	})
}

// FuzzSelectIterMonotonic checks that SelectIter's batched answer always
// agrees with calling Select once per rank, for both the Dense and Sparse
// Set codecs, across arbitrary fuzz-derived item sets and rank queries.
func FuzzSelectIterMonotonic(f *testing.F) {
	f.Add([]byte{}, []byte{})
	f.Add([]byte{0, 0, 255, 255}, []byte{0, 0, 1, 0})
	f.Add([]byte{1, 0, 3, 0, 17, 0, 32, 0, 48, 117, 49, 117}, []byte{0, 0, 1, 0, 2, 0, 5, 0})
	f.Fuzz(func(t *testing.T, itemBytes, rankBytes []byte) {
		seen := make(map[uint16]bool)
		var items []uint16
		for i := 0; i+2 <= len(itemBytes); i += 2 {
			v := binary.LittleEndian.Uint16(itemBytes[i:])
			if !seen[v] {
				seen[v] = true
				items = append(items, v)
			}
		}
		for i := 1; i < len(items); i++ {
			for j := i; j > 0 && items[j-1] > items[j]; j-- {
				items[j-1], items[j] = items[j], items[j-1]
			}
		}
		if len(items) == 0 {
			return
		}

		var ranks []uint16
		for i := 0; i+2 <= len(rankBytes); i += 2 {
			r := binary.LittleEndian.Uint16(rankBytes[i:]) % uint16(len(items))
			ranks = append(ranks, r)
		}
		for i := 1; i < len(ranks); i++ {
			for j := i; j > 0 && ranks[j-1] > ranks[j]; j-- {
				ranks[j-1], ranks[j] = ranks[j], ranks[j-1]
			}
		}

		for _, dense := range []bool{true, false} {
			var buf wire.Buffer
			if dense {
				SerializeDense(items, &buf)
			} else {
				SerializeSparse(items, &buf)
			}
			var set Set
			if dense {
				set = OpenDense(buf.Bytes())
			} else {
				set = OpenSparse(buf.Bytes())
			}
			got := set.SelectIter(ranks)
			for i, r := range ranks {
				if want := set.Select(r); got[i] != want {
					t.Fatalf("dense=%v: SelectIter mismatch at rank %d: got %d, want %d", dense, r, got[i], want)
				}
			}
		}
	})
}
