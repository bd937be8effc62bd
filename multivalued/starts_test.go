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

package multivalued

import (
	"reflect"
	"testing"
)

// TestMultivaluedScenario reproduces §10 scenario 4: doc 0 gets two values.
func TestMultivaluedScenario(t *testing.T) {
	b := NewBuilder()
	b.RecordRow(0)
	b.RecordValue()
	b.RecordValue()

	got := b.Finish(1)
	want := []uint32{0, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Finish = %v, want %v", got, want)
	}
}

func TestForwardFillSkippedRows(t *testing.T) {
	b := NewBuilder()
	b.RecordRow(0)
	b.RecordValue()
	b.RecordRow(3)
	b.RecordValue()
	b.RecordValue()

	got := b.Finish(4)
	want := []uint32{0, 1, 1, 1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Finish = %v, want %v", got, want)
	}
}

func TestStrictlyNonDecreasing(t *testing.T) {
	b := NewBuilder()
	b.RecordRow(0)
	b.RecordValue()
	b.RecordRow(1)
	b.RecordRow(2)
	b.RecordValue()
	b.RecordValue()
	b.RecordValue()

	got := b.Finish(3)
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("starts not non-decreasing: %v", got)
		}
	}
	if got[len(got)-1] != 4 {
		t.Fatalf("starts[numDocs] = %d, want total value count 4", got[len(got)-1])
	}
}

func TestEmptyBuilder(t *testing.T) {
	b := NewBuilder()
	got := b.Finish(3)
	want := []uint32{0, 0, 0, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Finish = %v, want %v", got, want)
	}
}
