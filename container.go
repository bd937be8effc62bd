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
	"encoding/binary"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slices"

	"github.com/colstore/columnar/dictionary"
	"github.com/colstore/columnar/internal/wire"
	"github.com/colstore/columnar/multivalued"
	"github.com/colstore/columnar/optionalindex"
	"github.com/colstore/columnar/rawvec"
)

// sortedColumn is one column pulled out of the per-category tables, tagged
// with the category it lives in so the merge-sort in Serialize can apply
// the (name, category_enum_order) key from §4.H across all five tables at
// once.
type sortedColumn struct {
	name     []byte
	category ColumnTypeCategory
	addr     arenaAddr
}

func (w *ColumnarWriter) collectSortedColumns() []sortedColumn {
	var all []sortedColumn
	for cat, t := range w.tables {
		for _, e := range t.iter() {
			all = append(all, sortedColumn{name: e.name, category: ColumnTypeCategory(cat), addr: e.addr})
		}
	}
	slices.SortFunc(all, func(a, b sortedColumn) bool {
		if c := bytes.Compare(a.name, b.name); c != 0 {
			return c < 0
		}
		return a.category < b.category
	})
	return all
}

// countingWriter tracks the number of bytes written so the directory can
// record each column frame's absolute start offset.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// writeColumnFrame replays writer's operation log and emits its full frame
// (dictionary, if any, then cardinality byte + index payload + value
// vector, then the dictionary-size trailer, if any) to dst. It returns the
// on-disk ColumnType for the directory entry.
func (w *ColumnarWriter) writeColumnFrame(dst *countingWriter, writer columnWriter, numDocs uint32) (ColumnType, error) {
	r := writer.replay(numDocs)
	card := writer.cardinality(numDocs)

	var dictBytes []byte
	if r.dictionaryID >= 0 {
		var dictBuf wire.Buffer
		mapping := w.dictionaries[r.dictionaryID].Serialize(&dictBuf)
		for i, v := range r.values {
			r.values[i] = uint64(mapping.Get(dictionary.UnorderedId(v)))
		}
		payload := dictBuf.Bytes()
		flag := byte(0)
		if w.cfg.CompressDictionary {
			payload = zstdCompress(payload)
			flag = 1
		}
		dictBytes = make([]byte, 0, len(payload)+1)
		dictBytes = append(dictBytes, flag)
		dictBytes = append(dictBytes, payload...)
	}

	var body wire.Buffer
	body.PutByte(byte(card))

	switch card {
	case Full:
		// no index payload: row i's value is values[i] directly.
	case Optional:
		present := make([]uint32, len(r.rows))
		for i, row := range r.rows {
			present[i] = uint32(row)
		}
		optionalindex.Build(present, numDocs, w.cfg.denseThreshold(), &body)
	case Multivalued:
		mb := multivalued.NewBuilder()
		for i, row := range r.rows {
			mb.RecordRow(uint32(row))
			for k := 0; k < r.valueCounts[i]; k++ {
				mb.RecordValue()
			}
		}
		starts := mb.Finish(numDocs)
		starts64 := make([]uint64, len(starts))
		for i, s := range starts {
			starts64[i] = uint64(s)
		}
		rawvec.SerializeU64(starts64, &body)
	}

	if r.colType == TypeIPAddr {
		rawvec.SerializeU128(r.valuesU128, &body)
	} else {
		rawvec.SerializeU64(r.values, &body)
	}

	if dictBytes != nil {
		if _, err := dst.Write(dictBytes); err != nil {
			return 0, err
		}
	}
	if _, err := dst.Write(body.Bytes()); err != nil {
		return 0, err
	}
	if r.dictionaryID >= 0 {
		var trailer [4]byte
		binary.LittleEndian.PutUint32(trailer[:], uint32(len(dictBytes)))
		if _, err := dst.Write(trailer[:]); err != nil {
			return 0, err
		}
	}
	return r.colType, nil
}

// Serialize writes every column recorded so far to sink as one self
// describing blob and marks the writer as consumed; further Record* calls
// panic. numDocs must be at least one greater than the largest doc id any
// column received.
func (w *ColumnarWriter) Serialize(numDocs uint32, sink io.Writer) error {
	w.checkNotSerialized()
	w.serialized = true
	start := time.Now()

	hasher, _ := blake2b.New256(nil)
	cw := &countingWriter{w: io.MultiWriter(sink, hasher)}

	columns := w.collectSortedColumns()
	entries := make([]directoryEntry, 0, len(columns))
	for _, col := range columns {
		frameStart := cw.n
		writer := w.arena.read(col.addr)
		typ, err := w.writeColumnFrame(cw, writer, numDocs)
		if err != nil {
			return err
		}
		entries = append(entries, directoryEntry{name: col.name, typ: typ, offset: frameStart})
	}

	dirStart := cw.n
	dirPayload := buildDirectoryPayload(entries)
	compressed := false
	if w.cfg.CompressDirectory {
		dirPayload = zstdCompress(dirPayload)
		compressed = true
	}
	if _, err := cw.Write(dirPayload); err != nil {
		return err
	}

	id := uuid.New()
	var footer wire.Buffer
	writeFooter(&footer, dirStart, uint64(len(dirPayload)), compressed, numDocs, id)
	if _, err := cw.Write(footer.Bytes()); err != nil {
		return err
	}

	w.segmentID = id
	copy(w.contentHash[:], hasher.Sum(nil))
	if w.logger != nil {
		w.logger.Printf("columnar: serialized %d columns, %d bytes, in %s", len(entries), cw.n, time.Since(start))
	}
	return nil
}

// ContentHash returns the blake2b-256 hash of the blob produced by the most
// recent Serialize call. It is the zero value until Serialize has run.
func (w *ColumnarWriter) ContentHash() [32]byte { return w.contentHash }

// SegmentID returns the random identifier stamped into the most recently
// serialized blob's footer. It is the zero UUID until Serialize has run.
func (w *ColumnarWriter) SegmentID() uuid.UUID { return w.segmentID }
