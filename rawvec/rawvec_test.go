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

package rawvec

import (
	"testing"

	"github.com/colstore/columnar/internal/wire"
)

func TestU64RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 42, 1 << 63, ^uint64(0)}
	var buf wire.Buffer
	n := SerializeU64(values, &buf)
	if n != buf.Len() {
		t.Fatalf("SerializeU64 returned %d, buffer has %d", n, buf.Len())
	}

	r, consumed, err := OpenU64(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenU64: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	if r.Len() != len(values) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(values))
	}
	for i, want := range values {
		if got := r.Get(i); got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestU64OpenTruncated(t *testing.T) {
	var buf wire.Buffer
	SerializeU64([]uint64{1, 2, 3}, &buf)
	if _, _, err := OpenU64(buf.Bytes()[:buf.Len()-1]); err == nil {
		t.Fatal("expected error opening truncated vector")
	}
}

func TestU128RoundTrip(t *testing.T) {
	values := [][16]byte{
		{},
		{0: 1},
		{15: 0xff},
	}
	var buf wire.Buffer
	n := SerializeU128(values, &buf)

	r, consumed, err := OpenU128(buf.Bytes())
	if err != nil {
		t.Fatalf("OpenU128: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d, want %d", consumed, n)
	}
	for i, want := range values {
		if got := r.Get(i); got != want {
			t.Fatalf("Get(%d) = %v, want %v", i, got, want)
		}
	}
}
