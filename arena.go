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

package columnar

import (
	"bytes"
	"math/rand"

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"
)

// arenaAddr is an address of a columnWriter living inside an arena. It is
// never dereferenced directly by callers outside this file; all access goes
// through arena.read/arena.mutate.
type arenaAddr int

// arena is the single bump-allocated store backing every column writer in a
// ColumnarWriter. Per-column state is appended to writers and never
// individually freed; the whole arena is reclaimed when the ColumnarWriter
// (and therefore the arena) becomes unreachable.
//
// Growing data that belongs to a column (its operation log chunks) is held
// directly on the columnWriter value stored here rather than via a separate
// indirection, since Go slices already provide the append-only, amortized
// growth an arena is meant to give a systems language without a GC.
type arena struct {
	writers []columnWriter
}

func (a *arena) alloc(w columnWriter) arenaAddr {
	a.writers = append(a.writers, w)
	return arenaAddr(len(a.writers) - 1)
}

func (a *arena) read(addr arenaAddr) columnWriter {
	return a.writers[addr]
}

func (a *arena) mutate(addr arenaAddr, f func(columnWriter) columnWriter) {
	a.writers[addr] = f(a.writers[addr])
}

// columnTable maps column names within a single ColumnTypeCategory to their
// arena address. Lookup goes through a plain Go map keyed by the name; the
// SipHash key pair, drawn at random when the table is constructed, is only
// used to compute the hash value iter reports for each entry. The table
// remembers insertion order so iter (and therefore Serialize's sort) is
// deterministic regardless of map iteration order.
type columnTable struct {
	k0, k1  uint64
	byName  map[string]arenaAddr
	names   [][]byte // insertion order, parallel to addr assignment
}

func newColumnTable() *columnTable {
	return &columnTable{
		k0:     rand.Uint64(),
		k1:     rand.Uint64(),
		byName: make(map[string]arenaAddr),
	}
}

func (t *columnTable) hash(name []byte) uint64 {
	return siphash.Hash(t.k0, t.k1, name)
}

// mutateOrCreate looks up name; if present, f is called with the existing
// columnWriter and ok=true and the result replaces it in the arena. If
// absent, f is called with ok=false and its result is inserted as a new
// column. name must not contain a zero byte.
func (t *columnTable) mutateOrCreate(a *arena, name []byte, f func(w columnWriter, ok bool) columnWriter) arenaAddr {
	if bytes.IndexByte(name, 0) >= 0 {
		usageError("column name %q contains a zero byte", name)
	}
	if addr, ok := t.byName[string(name)]; ok {
		a.mutate(addr, func(w columnWriter) columnWriter { return f(w, true) })
		return addr
	}
	addr := a.alloc(f(nil, false))
	t.byName[string(name)] = addr
	t.names = append(t.names, append([]byte(nil), name...))
	return addr
}

// columnTableEntry is one row of columnTable.iter's output.
type columnTableEntry struct {
	name []byte
	addr arenaAddr
	hash uint64
}

// iter returns every (name, addr, hash) triple in the table, sorted by name
// so Serialize can walk columns in the order §4.H requires without a
// separate sort pass per category.
func (t *columnTable) iter() []columnTableEntry {
	out := make([]columnTableEntry, 0, len(t.names))
	for _, name := range t.names {
		addr := t.byName[string(name)]
		out = append(out, columnTableEntry{name: name, addr: addr, hash: t.hash(name)})
	}
	slices.SortFunc(out, func(a, b columnTableEntry) bool {
		return bytes.Compare(a.name, b.name) < 0
	})
	return out
}
