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

import "golang.org/x/exp/constraints"

// nonDecreasing reports whether cur >= prev for any ordered integer type,
// the same single-comparison check ints/clampers.go builds its range
// helpers around with constraints.Integer.
func nonDecreasing[T constraints.Integer](prev, cur T) bool {
	return cur >= prev
}

// recordState is the bookkeeping shared by every concrete column writer:
// the last row id recorded (to decide whether a new NewDoc symbol is
// needed and to enforce monotonicity), and the running counters that let
// Cardinality be computed in O(1) at Serialize time instead of rescanning
// the log.
type recordState struct {
	hasLast           bool
	lastDoc           RowId
	numRowsWithValues int
	totalValues       int
}

// observeDoc reports whether a new NewDoc symbol must be pushed for doc,
// and updates the running "distinct rows seen" counter. It panics if doc
// regresses relative to the last row seen on this column, per the resolved
// Open Question in SPEC_FULL.md §11: callers may not interleave columns
// non-monotonically.
func (s *recordState) observeDoc(doc RowId) (needsNewDoc bool) {
	if s.hasLast && doc == s.lastDoc {
		return false
	}
	if s.hasLast && !nonDecreasing(s.lastDoc, doc) {
		usageError("row id %d regresses after %d", doc, s.lastDoc)
	}
	s.hasLast = true
	s.lastDoc = doc
	s.numRowsWithValues++
	return true
}

func (s *recordState) observeValue() {
	s.totalValues++
}

// cardinality implements §4.C's classifier: a pure function of the
// counters and numDocs.
func (s *recordState) cardinality(numDocs uint32) Cardinality {
	n := int(numDocs)
	switch {
	case s.totalValues == n && s.numRowsWithValues == n:
		return Full
	case s.totalValues == s.numRowsWithValues:
		return Optional
	default:
		return Multivalued
	}
}
