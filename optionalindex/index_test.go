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
	"testing"

	"github.com/colstore/columnar/internal/wire"
)

// buildAndOpen runs present through Build with denseThreshold and parses
// the result back with Open, failing the test on any error or leftover
// bytes.
func buildAndOpen(t *testing.T, present []uint32, numRows uint32, denseThreshold int) *Index {
	t.Helper()
	var buf wire.Buffer
	Build(present, numRows, denseThreshold, &buf)
	idx, n, err := Open(buf.Bytes())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if n != buf.Len() {
		t.Fatalf("Open consumed %d bytes, want %d", n, buf.Len())
	}
	return idx
}

func checkIndexInvariants(t *testing.T, name string, present []uint32, idx *Index) {
	t.Helper()
	if int(idx.Total()) != len(present) {
		t.Fatalf("%s: Total() = %d, want %d", name, idx.Total(), len(present))
	}
	for rank, row := range present {
		if !idx.Contains(row) {
			t.Fatalf("%s: Contains(%d) = false, want true", name, row)
		}
		if got := idx.Rank(row); int(got) != rank {
			t.Fatalf("%s: Rank(%d) = %d, want %d", name, row, got, rank)
		}
		if got := idx.Select(uint32(rank)); got != row {
			t.Fatalf("%s: Select(%d) = %d, want %d", name, rank, got, row)
		}
	}
}

// TestMultiBlockRoundTrip exercises the directory/cumulative-rank assembly
// across a present row id that straddles a block boundary (65535/65536), a
// block that is entirely empty, and a block with population at or above
// denseThreshold to force a real TagDense block through Build.
func TestMultiBlockRoundTrip(t *testing.T) {
	const numRows = 3 * BlockRows // blocks 0, 1, 2; block 1 left empty

	var present []uint32
	// block 0: sparse, includes the last two rows of the block.
	present = append(present, 0, 1, 2, BlockRows-2, BlockRows-1)
	// block 1: deliberately empty.
	// block 2: dense, population >= denseThreshold, includes its first row.
	const denseThreshold = 64
	base := uint32(2 * BlockRows)
	for i := 0; i < denseThreshold+10; i++ {
		present = append(present, base+uint32(i))
	}
	present = append(present, base+BlockRows-1)

	idx := buildAndOpen(t, present, numRows, denseThreshold)
	checkIndexInvariants(t, "multiblock", present, idx)

	// the boundary rows themselves: 65535 (last of block 0, present) and
	// 65536 (first of block 1, absent).
	if !idx.Contains(BlockRows - 1) {
		t.Fatalf("Contains(BlockRows-1) = false, want true")
	}
	if idx.Contains(BlockRows) {
		t.Fatalf("Contains(BlockRows) = true, want false (block 1 is empty)")
	}
	if got, want := idx.Rank(BlockRows), idx.Rank(BlockRows-1)+1; got != want {
		t.Fatalf("Rank(BlockRows) = %d, want %d", got, want)
	}
}

// TestDenseBlockForced picks a population that pushes Build's per-block
// classification into TagDense and checks the resulting Index still
// round-trips through Rank/Select/Contains correctly.
func TestDenseBlockForced(t *testing.T) {
	const denseThreshold = 128
	present := make([]uint32, 0, denseThreshold+1)
	for i := uint32(0); i < uint32(denseThreshold+1); i++ {
		present = append(present, i*3) // spread across the block, still < BlockRows
	}
	idx := buildAndOpen(t, present, BlockRows, denseThreshold)
	checkIndexInvariants(t, "dense-forced", present, idx)
}

func TestEmptyIndex(t *testing.T) {
	idx := buildAndOpen(t, nil, 2*BlockRows, DenseThreshold)
	if idx.Total() != 0 {
		t.Fatalf("Total() = %d, want 0", idx.Total())
	}
	if idx.Contains(0) {
		t.Fatalf("Contains(0) = true on empty index")
	}
	if idx.Rank(BlockRows + 5) != 0 {
		t.Fatalf("Rank on empty index should always be 0")
	}
}

func TestSelectOutOfRangePanics(t *testing.T) {
	idx := buildAndOpen(t, []uint32{0, 1, 2}, BlockRows, DenseThreshold)
	defer func() {
		if recover() == nil {
			t.Fatalf("Select(Total()) did not panic")
		}
	}()
	idx.Select(idx.Total())
}
