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
	"log"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/colstore/columnar/dictionary"
)

// ColumnarWriter accumulates per-document, per-column records and, on
// Serialize, packs everything recorded into one self-describing blob. It is
// single-owner and single-threaded: see SPEC_FULL.md §5 for the concurrency
// model. The zero value is not usable; construct with NewColumnarWriter.
type ColumnarWriter struct {
	cfg    Config
	logger *log.Logger

	arena  arena
	tables [numCategories]*columnTable

	// dictionaries holds one Builder per Str/Bytes column that has ever
	// been recorded, indexed by strOrBytesColumnWriter.dictionaryID.
	dictionaries []*dictionary.Builder

	serialized  bool
	segmentID   uuid.UUID
	contentHash [32]byte
}

// NewColumnarWriter returns a writer configured by cfg. logger may be nil,
// in which case the writer is silent (see SPEC_FULL.md §8.1).
func NewColumnarWriter(cfg Config, logger *log.Logger) *ColumnarWriter {
	w := &ColumnarWriter{cfg: cfg, logger: logger}
	if cfg.InitialArenaCapacity > 0 {
		w.arena.writers = make([]columnWriter, 0, cfg.InitialArenaCapacity)
	}
	for i := range w.tables {
		w.tables[i] = newColumnTable()
	}
	return w
}

func (w *ColumnarWriter) checkNotSerialized() {
	if w.serialized {
		usageError("Record* called after Serialize")
	}
}

// RecordBool appends a boolean value for doc under name.
func (w *ColumnarWriter) RecordBool(doc RowId, name string, v bool) {
	w.checkNotSerialized()
	w.tables[CategoryBool].mutateOrCreate(&w.arena, []byte(name), func(cw columnWriter, ok bool) columnWriter {
		bw, _ := cw.(*boolColumnWriter)
		if !ok {
			bw = newBoolColumnWriter()
		}
		bw.Record(doc, v)
		return bw
	})
}

// RecordIPAddr appends a 16-byte IPv6 (or IPv4-mapped) address for doc
// under name.
func (w *ColumnarWriter) RecordIPAddr(doc RowId, name string, v [16]byte) {
	w.checkNotSerialized()
	w.tables[CategoryIPAddr].mutateOrCreate(&w.arena, []byte(name), func(cw columnWriter, ok bool) columnWriter {
		iw, _ := cw.(*ipAddrColumnWriter)
		if !ok {
			iw = newIPAddrColumnWriter()
		}
		iw.Record(doc, v)
		return iw
	})
}

// RecordNumerical appends a numeric value for doc under name. The column's
// eventual on-disk type is decided at Serialize time by the coercion
// lattice described in SPEC_FULL.md §3.
func (w *ColumnarWriter) RecordNumerical(doc RowId, name string, v NumericalValue) {
	w.checkNotSerialized()
	w.tables[CategoryNumerical].mutateOrCreate(&w.arena, []byte(name), func(cw columnWriter, ok bool) columnWriter {
		nw, _ := cw.(*numericalColumnWriter)
		if !ok {
			nw = newNumericalColumnWriter()
		}
		nw.Record(doc, v)
		return nw
	})
}

func (w *ColumnarWriter) recordStrOrBytes(doc RowId, category ColumnTypeCategory, name string, b []byte, isStr bool) {
	w.checkNotSerialized()
	w.tables[category].mutateOrCreate(&w.arena, []byte(name), func(cw columnWriter, ok bool) columnWriter {
		sw, _ := cw.(*strOrBytesColumnWriter)
		if !ok {
			id := len(w.dictionaries)
			w.dictionaries = append(w.dictionaries, dictionary.NewBuilder())
			sw = newStrOrBytesColumnWriter(id, isStr)
		}
		sw.RecordBytes(doc, b, w.dictionaries[sw.dictionaryID])
		return sw
	})
}

// RecordStr appends a UTF-8 string value for doc under name. Validity of
// the UTF-8 encoding is the caller's responsibility; this layer only
// interns bytes.
func (w *ColumnarWriter) RecordStr(doc RowId, name string, v string) {
	w.recordStrOrBytes(doc, CategoryStr, name, []byte(v), true)
}

// RecordBytes appends an opaque byte-string value for doc under name.
func (w *ColumnarWriter) RecordBytes(doc RowId, name string, v []byte) {
	w.recordStrOrBytes(doc, CategoryBytes, name, v, false)
}

// ColumnNames returns the names of every column recorded so far in cat,
// sorted lexicographically. It is an introspection helper for callers
// building schemas or tooling around a writer still being populated; it
// has no bearing on Serialize's own (name, category) ordering, which is
// computed independently at serialize time.
func (w *ColumnarWriter) ColumnNames(cat ColumnTypeCategory) []string {
	names := maps.Keys(w.tables[cat].byName)
	slices.Sort(names)
	return names
}
