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

// Package dictionary implements the unordered-id-at-ingest,
// ordered-id-at-serialize interning scheme for Str/Bytes columns (§4.D).
// The Intern half is adapted directly from the teacher's ion.Symtab, which
// solves the identical content-addressed-string-to-small-integer problem
// for ion symbol tables: a string, a hash map from string to id, and a
// slice from id back to string. What differs from Symtab is what happens
// at serialize time: Symtab just needs to dump its strings in insertion
// order, while a dictionary column needs the terms sorted for compact,
// binary-searchable on-disk lookup, which is why Builder additionally
// produces a TermIdMapping remapping ingestion order to sorted order.
package dictionary

import (
	"golang.org/x/exp/slices"

	"github.com/colstore/columnar/internal/wire"
)

// UnorderedId is assigned to a term the first time it is interned, in
// insertion order. Operation logs record UnorderedIds because assigning
// them must be O(1) and must not require the full term set to be known.
type UnorderedId uint64

// OrderedId is a term's position in the lexicographically sorted term set,
// assigned only once Serialize is called. On-disk term lookups (and
// cross-column joins on dictionary-encoded columns) use OrderedIds because
// they support binary search and are stable across writers that happen to
// intern terms in different orders.
type OrderedId uint64

// TermIdMapping remaps UnorderedIds to OrderedIds: perm[unordered] ==
// ordered. It is produced once by Builder.Serialize.
type TermIdMapping []OrderedId

// Get returns the OrderedId corresponding to id.
func (m TermIdMapping) Get(id UnorderedId) OrderedId { return m[id] }

// Builder interns byte strings during ingest and, at Serialize time, emits
// them sorted into a term block plus the UnorderedId->OrderedId remap.
type Builder struct {
	toID  map[string]UnorderedId
	terms [][]byte // indexed by UnorderedId, insertion order
}

// NewBuilder returns an empty Builder ready to intern terms.
func NewBuilder() *Builder {
	return &Builder{toID: make(map[string]UnorderedId)}
}

// Intern assigns term a stable UnorderedId, reusing the existing id if term
// was already interned. A new term is copied before it is stored, so the
// caller may reuse or mutate term afterwards.
func (b *Builder) Intern(term []byte) UnorderedId {
	if id, ok := b.toID[string(term)]; ok {
		return id
	}
	id := UnorderedId(len(b.terms))
	cp := append([]byte(nil), term...)
	b.terms = append(b.terms, cp)
	b.toID[string(cp)] = id
	return id
}

// Len returns the number of distinct terms interned so far.
func (b *Builder) Len() int { return len(b.terms) }

// Serialize sorts the interned terms lexicographically, writes them to dst
// as a sequence of (uvarint length, bytes) entries, and returns the
// UnorderedId->OrderedId mapping. Each term is written whole behind its
// length prefix (no prefix sharing between neighbouring terms), so a reader
// can recover term boundaries with nothing more than repeated wire.Uvarint
// calls.
func (b *Builder) Serialize(dst *wire.Buffer) TermIdMapping {
	order := make([]int, len(b.terms))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(i, j int) bool {
		return string(b.terms[i]) < string(b.terms[j])
	})

	mapping := make(TermIdMapping, len(b.terms))
	for ordered, unordered := range order {
		mapping[unordered] = OrderedId(ordered)
		term := b.terms[unordered]
		dst.PutUvarint(uint64(len(term)))
		dst.PutBytes(term)
	}
	return mapping
}

// Reader is the read-side view of a serialized term block: a slice of
// terms in sorted (OrderedId) order. It supports the round-trip guarantees
// tested in §10: terms come back out in lexicographic order and ToOrd is a
// bijection onto [0, numTerms).
type Reader struct {
	terms [][]byte
}

// Open parses a term block written by Builder.Serialize. It returns the
// Reader and the number of bytes consumed, so the caller (which knows the
// dictionary's total byte length from the per-column frame trailer) can
// validate that parsing consumed exactly that many bytes.
func Open(buf []byte, numTerms int) (*Reader, int, error) {
	r := &Reader{terms: make([][]byte, 0, numTerms)}
	off := 0
	for i := 0; i < numTerms; i++ {
		n, k := wire.Uvarint(buf[off:])
		if k == 0 {
			return nil, 0, errShortTermBlock
		}
		off += k
		if off+int(n) > len(buf) {
			return nil, 0, errShortTermBlock
		}
		r.terms = append(r.terms, buf[off:off+int(n)])
		off += int(n)
	}
	return r, off, nil
}

// Term returns the term at OrderedId id.
func (r *Reader) Term(id OrderedId) []byte { return r.terms[id] }

// Len returns the number of terms in the dictionary.
func (r *Reader) Len() int { return len(r.terms) }

// ToOrd returns the OrderedId of term, or (0, false) if it is absent. The
// dictionary is sorted, so this is a binary search.
func (r *Reader) ToOrd(term []byte) (OrderedId, bool) {
	s := string(term)
	lo, hi := 0, len(r.terms)
	for lo < hi {
		mid := (lo + hi) / 2
		t := string(r.terms[mid])
		switch {
		case t == s:
			return OrderedId(mid), true
		case t < s:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0, false
}
