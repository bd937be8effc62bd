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

// Package multivalued builds the value-range index used by Multivalued
// columns: a length-(numDocs+1) vector of prefix-sum offsets into the
// column's value vector. It is deliberately the simplest of the three index
// shapes — since the result is itself just a monotonically non-decreasing
// sequence of uint32s, it round-trips through the exact same u64-mappable
// value-vector codec ordinary numerical columns use, rather than a bespoke
// wire format of its own.
package multivalued

// Builder accumulates row boundaries into a prefix-sum starts vector. Rows
// that receive no RecordRow call at all (skipped entirely) are forward
// filled with the value count observed so far, so the final vector is
// always exactly as long as the row space it was built over.
type Builder struct {
	starts []uint32
	cur    uint32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// RecordRow ensures doc has an entry in the starts vector, forward-filling
// any earlier rows that were skipped with the current running value count.
// Calling RecordRow again for a doc already covered is a no-op, matching
// columnWriter.Record's "same doc, no new NewDoc" behavior.
func (b *Builder) RecordRow(doc uint32) {
	for uint32(len(b.starts)) <= doc {
		b.starts = append(b.starts, b.cur)
	}
}

// RecordValue accounts for one more value having been appended to the
// column's value vector for the row most recently passed to RecordRow.
func (b *Builder) RecordValue() {
	b.cur++
}

// Finish pads the starts vector up to length numDocs+1 with the final
// running count and returns it. starts[numDocs] always equals the total
// number of values recorded, and starts[d+1]-starts[d] is the value count
// for row d.
func (b *Builder) Finish(numDocs uint32) []uint32 {
	for uint32(len(b.starts)) <= numDocs {
		b.starts = append(b.starts, b.cur)
	}
	return b.starts[:numDocs+1]
}
