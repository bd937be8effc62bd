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
	"reflect"
	"testing"

	"github.com/colstore/columnar/internal/wire"
)

func serializeAndOpen(t *testing.T, items []uint16, dense bool) Set {
	t.Helper()
	var buf wire.Buffer
	var n int
	if dense {
		n = SerializeDense(items, &buf)
		if n != DenseBytes {
			t.Fatalf("SerializeDense returned %d, want %d", n, DenseBytes)
		}
	} else {
		n = SerializeSparse(items, &buf)
		if n != 2*len(items) {
			t.Fatalf("SerializeSparse returned %d, want %d", n, 2*len(items))
		}
	}
	if buf.Len() != n {
		t.Fatalf("buffer length %d != reported size %d", buf.Len(), n)
	}
	if dense {
		return OpenDense(buf.Bytes())
	}
	return OpenSparse(buf.Bytes())
}

// TestDenseSelectIteration reproduces §10 scenario 6 exactly.
func TestDenseSelectIteration(t *testing.T) {
	items := []uint16{1, 3, 17, 32, 30000, 30001}
	set := serializeAndOpen(t, items, true)

	got := set.SelectIter([]uint16{0, 1, 2, 5})
	want := []uint16{1, 3, 17, 30001}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SelectIter = %v, want %v", got, want)
	}
}

func checkInvariants(t *testing.T, name string, items []uint16, set Set) {
	t.Helper()
	present := make(map[uint16]bool, len(items))
	for _, v := range items {
		present[v] = true
	}
	if set.Len() != len(items) {
		t.Fatalf("%s: Len() = %d, want %d", name, set.Len(), len(items))
	}
	// Contains
	for v := 0; v < BlockRows; v += 997 { // sample, full range is too slow
		want := present[uint16(v)]
		if got := set.Contains(uint16(v)); got != want {
			t.Fatalf("%s: Contains(%d) = %v, want %v", name, v, got, want)
		}
	}
	for _, v := range items {
		if !set.Contains(v) {
			t.Fatalf("%s: Contains(%d) = false, want true", name, v)
		}
	}
	// RankIfExists / Select agreement
	for k, v := range items {
		rank, ok := RankIfExists(set, v)
		if !ok {
			t.Fatalf("%s: RankIfExists(%d) not found", name, v)
		}
		if int(rank) != k {
			t.Fatalf("%s: RankIfExists(%d) = %d, want %d", name, v, rank, k)
		}
		if got := set.Select(uint16(k)); got != v {
			t.Fatalf("%s: Select(%d) = %d, want %d", name, k, got, v)
		}
	}
	// a value definitely absent (if any gap exists)
	for v := 0; v < BlockRows; v++ {
		if !present[uint16(v)] {
			if _, ok := RankIfExists(set, uint16(v)); ok {
				t.Fatalf("%s: RankIfExists(%d) found an absent value", name, v)
			}
			break
		}
	}
	// SelectIter over all ranks must equal mapping Select over each
	ranks := make([]uint16, len(items))
	for i := range ranks {
		ranks[i] = uint16(i)
	}
	got := set.SelectIter(ranks)
	for i, r := range ranks {
		if got[i] != set.Select(r) {
			t.Fatalf("%s: SelectIter mismatch at rank %d", name, r)
		}
	}
}

func TestDenseSparseInvariants(t *testing.T) {
	items := []uint16{0, 1, 2, 64, 65, 127, 128, 4095, 4096, 8192, 30000, 30001, 65535}
	t.Run("dense", func(t *testing.T) {
		checkInvariants(t, "dense", items, serializeAndOpen(t, items, true))
	})
	t.Run("sparse", func(t *testing.T) {
		checkInvariants(t, "sparse", items, serializeAndOpen(t, items, false))
	})
}

func TestEmptyBlocks(t *testing.T) {
	t.Run("dense", func(t *testing.T) {
		set := serializeAndOpen(t, nil, true)
		if set.Len() != 0 {
			t.Fatalf("Len() = %d, want 0", set.Len())
		}
		if set.Contains(0) {
			t.Fatalf("empty dense block contains 0")
		}
	})
	t.Run("sparse", func(t *testing.T) {
		set := serializeAndOpen(t, nil, false)
		if set.Len() != 0 {
			t.Fatalf("Len() = %d, want 0", set.Len())
		}
	})
}

func TestSelectPanicsOutOfRange(t *testing.T) {
	for _, dense := range []bool{true, false} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("Select(0) on empty set (dense=%v) did not panic", dense)
				}
			}()
			set := serializeAndOpen(t, nil, dense)
			set.Select(0)
		}()
	}
}
