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
	"math"

	"github.com/colstore/columnar/dictionary"
)

// replayResult is what a columnWriter hands the container serializer after
// replaying its operation log: the set of rows that received at least one
// value (ascending, deduplicated), how many values each of those rows got
// (parallel to rows), and the values themselves already mapped to the
// uint64 domain the value-vector codec (§4.G) speaks, in row-major order.
//
// IP-address columns are the one category whose values don't fit uint64;
// they populate valuesU128 instead and leave values nil. Str/Bytes columns
// populate values with raw UnorderedIds — the container serializer remaps
// those through the column's dictionary's TermIdMapping once the
// dictionary has been sorted, which is why dictionaryID is carried here
// rather than resolved eagerly.
type replayResult struct {
	rows        []RowId
	valueCounts []int
	values      []uint64
	valuesU128  [][16]byte
	colType     ColumnType

	// dictionaryID is the index into the writer's slice of dictionary
	// builders this column interned into, or -1 for non-dictionary
	// columns.
	dictionaryID int
}

func (r *replayResult) totalValues() int {
	if r.valuesU128 != nil {
		return len(r.valuesU128)
	}
	return len(r.values)
}

// columnWriter is the type-erased surface the arena stores per column.
// Concrete categories (bool, numerical, ip_addr, str/bytes) each keep their
// native value type in their own oplog and only cross the erasure boundary
// in replay, where every category's records get reduced to the row/value
// shape the container serializer and index builders operate on uniformly.
type columnWriter interface {
	category() ColumnTypeCategory
	cardinality(numDocs uint32) Cardinality
	replay(numDocs uint32) replayResult
}

// replayRows drains an oplog, returning the distinct rows that received at
// least one value (ascending, since doc ids are enforced non-decreasing)
// and the per-row value count, needed by every concrete replay() to build
// the row/valueCounts half of a replayResult uniformly. emit is called once
// per Value symbol, in stream order, so the caller can build the matching
// values slice alongside. Every NewDoc pushed by Record is always followed
// by at least one Value before the next NewDoc, so every row appended here
// ends up with a nonzero count.
func replayRows[T any](log *oplog[T], emit func(T)) (rows []RowId, valueCounts []int) {
	log.iterate(
		func(doc RowId) {
			rows = append(rows, doc)
			valueCounts = append(valueCounts, 0)
		},
		func(v T) {
			valueCounts[len(valueCounts)-1]++
			emit(v)
		},
	)
	return rows, valueCounts
}

// --- bool ---

type boolColumnWriter struct {
	state recordState
	log   oplog[bool]
}

func newBoolColumnWriter() *boolColumnWriter { return &boolColumnWriter{} }

func (w *boolColumnWriter) Record(doc RowId, v bool) {
	if w.state.observeDoc(doc) {
		w.log.pushNewDoc(doc)
	}
	w.state.observeValue()
	w.log.pushValue(v)
}

func (w *boolColumnWriter) category() ColumnTypeCategory { return CategoryBool }

func (w *boolColumnWriter) cardinality(numDocs uint32) Cardinality {
	return w.state.cardinality(numDocs)
}

func (w *boolColumnWriter) replay(numDocs uint32) replayResult {
	var values []uint64
	rows, counts := replayRows(&w.log, func(v bool) {
		if v {
			values = append(values, 1)
		} else {
			values = append(values, 0)
		}
	})
	return replayResult{rows: rows, valueCounts: counts, values: values, colType: TypeBool, dictionaryID: -1}
}

// --- ip_addr ---

type ipAddrColumnWriter struct {
	state recordState
	log   oplog[[16]byte]
}

func newIPAddrColumnWriter() *ipAddrColumnWriter { return &ipAddrColumnWriter{} }

func (w *ipAddrColumnWriter) Record(doc RowId, v [16]byte) {
	if w.state.observeDoc(doc) {
		w.log.pushNewDoc(doc)
	}
	w.state.observeValue()
	w.log.pushValue(v)
}

func (w *ipAddrColumnWriter) category() ColumnTypeCategory { return CategoryIPAddr }

func (w *ipAddrColumnWriter) cardinality(numDocs uint32) Cardinality {
	return w.state.cardinality(numDocs)
}

func (w *ipAddrColumnWriter) replay(numDocs uint32) replayResult {
	var values [][16]byte
	rows, counts := replayRows(&w.log, func(v [16]byte) {
		values = append(values, v)
	})
	return replayResult{rows: rows, valueCounts: counts, valuesU128: values, colType: TypeIPAddr, dictionaryID: -1}
}

// --- numerical ---

// numericalColumnWriter tracks which of the three numeric tags it has ever
// seen so that, at classification time, it can apply the coercion lattice
// from §3/SPEC_FULL.md without rescanning the log: U64+I64 -> I64; any+F64
// -> F64; I64 + non-negative U64 fits as I64; otherwise F64.
type numericalColumnWriter struct {
	state   recordState
	log     oplog[NumericalValue]
	seenI64 bool
	seenU64 bool
	seenF64 bool
	// seenU64TooLarge is set once a recorded U64 value does not fit in an
	// int64, which forces F64 rather than I64 when mixed with I64/U64.
	seenU64TooLarge bool
}

func newNumericalColumnWriter() *numericalColumnWriter { return &numericalColumnWriter{} }

func (w *numericalColumnWriter) Record(doc RowId, v NumericalValue) {
	if w.state.observeDoc(doc) {
		w.log.pushNewDoc(doc)
	}
	w.state.observeValue()
	switch v.Tag {
	case NumI64:
		w.seenI64 = true
	case NumU64:
		w.seenU64 = true
		if v.U64 > math.MaxInt64 {
			w.seenU64TooLarge = true
		}
	case NumF64:
		w.seenF64 = true
	}
	w.log.pushValue(v)
}

func (w *numericalColumnWriter) category() ColumnTypeCategory { return CategoryNumerical }

func (w *numericalColumnWriter) cardinality(numDocs uint32) Cardinality {
	return w.state.cardinality(numDocs)
}

// numericalType applies the coercion lattice. Valid to call even if no
// values were ever recorded; callers must not rely on the result in that
// case since there is no observed type to coerce (NumI64 is returned as an
// arbitrary default).
func (w *numericalColumnWriter) numericalType() NumericalType {
	switch {
	case w.seenF64:
		return NumF64
	case w.seenU64TooLarge && w.seenI64:
		return NumF64
	case w.seenU64 && w.seenI64:
		return NumI64
	case w.seenU64:
		return NumU64
	default:
		return NumI64
	}
}

// u64Bits maps a NumericalValue into the monotonic uint64 domain the value
// vector codec expects, coerced to target. Floats use the IEEE-754
// total-order bit trick: flip the sign bit for non-negatives, flip every
// bit for negatives, so that the resulting uint64 ordering matches the
// float ordering.
func u64Bits(v NumericalValue, target NumericalType) uint64 {
	switch target {
	case NumF64:
		var f float64
		switch v.Tag {
		case NumI64:
			f = float64(v.I64)
		case NumU64:
			f = float64(v.U64)
		case NumF64:
			f = v.F64
		}
		bits := math.Float64bits(f)
		if bits&(1<<63) != 0 {
			return ^bits
		}
		return bits | (1 << 63)
	case NumI64:
		var i int64
		switch v.Tag {
		case NumI64:
			i = v.I64
		case NumU64:
			i = int64(v.U64)
		}
		return uint64(i) ^ (1 << 63) // shift signed range so ordering is monotonic in uint64
	default: // NumU64
		return v.U64
	}
}

func (w *numericalColumnWriter) replay(numDocs uint32) replayResult {
	target := w.numericalType()
	var values []uint64
	rows, counts := replayRows(&w.log, func(v NumericalValue) {
		values = append(values, u64Bits(v, target))
	})
	return replayResult{rows: rows, valueCounts: counts, values: values, colType: ColumnType(target), dictionaryID: -1}
}

// --- str / bytes ---

// strOrBytesColumnWriter backs both the Str and Bytes categories; they
// differ only in the on-disk ColumnType tag and in that Str additionally
// guarantees its dictionary holds valid UTF-8, which is enforced by the
// caller at the Record* boundary rather than here.
type strOrBytesColumnWriter struct {
	state        recordState
	log          oplog[dictionary.UnorderedId]
	dictionaryID int
	isStr        bool
}

func newStrOrBytesColumnWriter(dictionaryID int, isStr bool) *strOrBytesColumnWriter {
	return &strOrBytesColumnWriter{dictionaryID: dictionaryID, isStr: isStr}
}

// RecordBytes interns b into this column's dictionary builder and logs the
// resulting UnorderedId as the column's recorded value.
func (w *strOrBytesColumnWriter) RecordBytes(doc RowId, b []byte, dict *dictionary.Builder) {
	if w.state.observeDoc(doc) {
		w.log.pushNewDoc(doc)
	}
	w.state.observeValue()
	w.log.pushValue(dict.Intern(b))
}

func (w *strOrBytesColumnWriter) category() ColumnTypeCategory {
	if w.isStr {
		return CategoryStr
	}
	return CategoryBytes
}

func (w *strOrBytesColumnWriter) cardinality(numDocs uint32) Cardinality {
	return w.state.cardinality(numDocs)
}

// replay returns raw UnorderedIds as values; the container serializer
// remaps them through this column's dictionary's TermIdMapping once that
// dictionary has been sorted at Serialize time, since sort order cannot be
// known until every term across every doc has been interned.
func (w *strOrBytesColumnWriter) replay(numDocs uint32) replayResult {
	var values []uint64
	rows, counts := replayRows(&w.log, func(v dictionary.UnorderedId) {
		values = append(values, uint64(v))
	})
	colType := TypeBytes
	if w.isStr {
		colType = TypeStr
	}
	return replayResult{rows: rows, valueCounts: counts, values: values, colType: colType, dictionaryID: w.dictionaryID}
}
