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

// opKind distinguishes the two symbols that make up a column's operation
// log, per §3's ColumnOperation sum type.
type opKind byte

const (
	opNewDoc opKind = iota
	opValue
)

// opSymbol is one entry of a column's operation log: either NewDoc(doc) or
// Value(v). Only the field matching kind is meaningful.
type opSymbol[T any] struct {
	kind opKind
	doc  RowId
	val  T
}

// oplog is the append-only, one-shot-iterable symbol stream for a single
// column, per §4.B. Unlike the teacher's ion.Buffer (which serializes
// directly to a byte-oriented wire format because ion streams leave the
// process), the log here stays as native Go values in memory for the
// lifetime of the writer: the arena's job is to avoid per-record
// allocation, and a plain growable slice already does that via Go's
// amortized append, so there is no separate byte encode/decode step until
// Serialize actually needs one (the dictionary and directory do encode to
// bytes, in internal/wire, because those MUST leave the process).
type oplog[T any] struct {
	entries []opSymbol[T]
}

// pushNewDoc appends a NewDoc symbol, collapsing it into the previous
// symbol if that was itself an uncommitted NewDoc (§4.B: "adjacent NewDocs
// with no Value between them must appear collapsed to the last NewDoc").
func (o *oplog[T]) pushNewDoc(doc RowId) {
	if n := len(o.entries); n > 0 && o.entries[n-1].kind == opNewDoc {
		o.entries[n-1].doc = doc
		return
	}
	o.entries = append(o.entries, opSymbol[T]{kind: opNewDoc, doc: doc})
}

// pushValue appends a Value symbol.
func (o *oplog[T]) pushValue(v T) {
	o.entries = append(o.entries, opSymbol[T]{kind: opValue, val: v})
}

// iterate replays the log in insertion order, calling onDoc for every
// NewDoc symbol and onValue for every Value symbol. Because pushNewDoc
// already collapses adjacent NewDocs at insertion time, no further
// collapsing is needed here; the method exists so that replay logic always
// goes through one place.
func (o *oplog[T]) iterate(onDoc func(RowId), onValue func(T)) {
	for _, e := range o.entries {
		switch e.kind {
		case opNewDoc:
			onDoc(e.doc)
		case opValue:
			onValue(e.val)
		}
	}
}
