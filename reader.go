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
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/colstore/columnar/dictionary"
	"github.com/colstore/columnar/internal/wire"
	"github.com/colstore/columnar/optionalindex"
	"github.com/colstore/columnar/rawvec"
)

// Reader is the opened, read-only view of a blob written by
// ColumnarWriter.Serialize. Opening is a pure, allocation-light pass over
// the footer and directory; no column body is parsed until Column is
// called for it.
type Reader struct {
	buf       []byte
	entries   []directoryEntry
	numDocs   uint32
	id        uuid.UUID
	dirOffset uint64
}

// Open parses buf's footer and directory. buf must be the complete blob
// Serialize produced; Open does not copy it, so the caller must keep it
// alive for as long as the Reader (and any Column it hands out) is in use.
func Open(buf []byte) (*Reader, error) {
	f, err := parseFooter(buf)
	if err != nil {
		return nil, err
	}
	if f.dirOffset+f.dirLen > uint64(len(buf)) {
		return nil, ErrShortBuffer
	}
	dirBytes := buf[f.dirOffset : f.dirOffset+f.dirLen]
	if f.dirCompressed {
		dirBytes, err = zstdDecompress(dirBytes)
		if err != nil {
			return nil, err
		}
	}
	entries, err := parseDirectoryPayload(dirBytes)
	if err != nil {
		return nil, err
	}
	return &Reader{buf: buf, entries: entries, numDocs: f.numDocs, id: f.id, dirOffset: f.dirOffset}, nil
}

// NumDocs returns the row-space size this container was serialized with.
func (r *Reader) NumDocs() uint32 { return r.numDocs }

// SegmentID returns the writer-stamped identifier from the blob's footer.
func (r *Reader) SegmentID() uuid.UUID { return r.id }

// frameBounds returns the byte range of the i-th directory entry's frame.
func (r *Reader) frameBounds(i int) (start, end uint64) {
	start = r.entries[i].offset
	if i+1 < len(r.entries) {
		end = r.entries[i+1].offset
	} else {
		// the last column's frame ends where the directory begins.
		end = r.dirOffset
	}
	return start, end
}

// Column opens the column named name in category cat. It returns
// ErrUnknownColumn if no such column was ever recorded.
func (r *Reader) Column(name string, cat ColumnTypeCategory) (*Column, error) {
	nameBytes := []byte(name)
	i := sort.Search(len(r.entries), func(i int) bool {
		return bytes.Compare(r.entries[i].name, nameBytes) >= 0
	})
	for i < len(r.entries) && bytes.Equal(r.entries[i].name, nameBytes) {
		if r.entries[i].typ.category() == cat {
			return r.openColumn(i)
		}
		i++
	}
	return nil, ErrUnknownColumn
}

// Column is a single named column opened from a Reader: a ColumnIndex (one
// of Full/Optional/Multivalued) paired with the value vector it indexes
// into.
type Column struct {
	typ         ColumnType
	cardinality Cardinality

	optIdx *optionalindex.Index
	starts *rawvec.U64Reader // Multivalued only

	values     *rawvec.U64Reader
	valuesU128 *rawvec.U128Reader
	dict       *dictionary.Reader // Str/Bytes only

	numDocs uint32
}

func (r *Reader) openColumn(i int) (*Column, error) {
	start, end := r.frameBounds(i)
	if end > uint64(len(r.buf)) || start > end {
		return nil, ErrShortBuffer
	}
	frame := r.buf[start:end]
	typ := r.entries[i].typ

	c := &Column{typ: typ, numDocs: r.numDocs}

	if typ == TypeStr || typ == TypeBytes {
		if len(frame) < 4 {
			return nil, ErrShortBuffer
		}
		dictSize := binary.LittleEndian.Uint32(frame[len(frame)-4:])
		body := frame[:len(frame)-4]
		if uint32(len(body)) < dictSize {
			return nil, ErrShortBuffer
		}
		dictBlock := body[:dictSize]
		body = body[dictSize:]
		if len(dictBlock) < 1 {
			return nil, ErrShortBuffer
		}
		compressed := dictBlock[0] != 0
		payload := dictBlock[1:]
		if compressed {
			var err error
			payload, err = zstdDecompress(payload)
			if err != nil {
				return nil, err
			}
		}
		dictReader, _, err := dictionary.Open(payload, countTerms(payload))
		if err != nil {
			return nil, err
		}
		c.dict = dictReader
		frame = body
	}

	if len(frame) < 1 {
		return nil, ErrShortBuffer
	}
	cardinality := Cardinality(frame[0])
	if cardinality != Full && cardinality != Optional && cardinality != Multivalued {
		return nil, decodeErrorf(ErrInvalidTag, "cardinality", int(start))
	}
	c.cardinality = cardinality
	off := 1

	switch cardinality {
	case Optional:
		idx, n, err := optionalindex.Open(frame[off:])
		if err != nil {
			return nil, err
		}
		c.optIdx = idx
		off += n
	case Multivalued:
		starts, n, err := rawvec.OpenU64(frame[off:])
		if err != nil {
			return nil, err
		}
		c.starts = starts
		off += n
	}

	if typ == TypeIPAddr {
		v, _, err := rawvec.OpenU128(frame[off:])
		if err != nil {
			return nil, err
		}
		c.valuesU128 = v
	} else {
		v, _, err := rawvec.OpenU64(frame[off:])
		if err != nil {
			return nil, err
		}
		c.values = v
	}
	return c, nil
}

// countTerms walks a term block counting entries, since the frame does not
// separately record the dictionary's term count (only its byte length).
func countTerms(buf []byte) int {
	n := 0
	off := 0
	for off < len(buf) {
		length, k := wire.Uvarint(buf[off:])
		if k == 0 {
			break
		}
		off += k + int(length)
		n++
	}
	return n
}

// Cardinality reports this column's on-disk cardinality.
func (c *Column) Cardinality() Cardinality { return c.cardinality }

// Type reports this column's on-disk value type.
func (c *Column) Type() ColumnType { return c.typ }

// NumRows returns the size of the row space this column was indexed over.
func (c *Column) NumRows() int { return int(c.numDocs) }

// valueRange returns the [lo, hi) range of value-vector positions holding
// row's values, and whether row has any values at all.
func (c *Column) valueRange(row RowId) (lo, hi int, ok bool) {
	switch c.cardinality {
	case Full:
		if uint32(row) >= c.numDocs {
			return 0, 0, false
		}
		return int(row), int(row) + 1, true
	case Optional:
		if !c.optIdx.Contains(uint32(row)) {
			return 0, 0, false
		}
		r := c.optIdx.Rank(uint32(row))
		return int(r), int(r) + 1, true
	case Multivalued:
		if uint32(row)+1 >= uint32(c.starts.Len()) {
			return 0, 0, false
		}
		lo := int(c.starts.Get(int(row)))
		hi := int(c.starts.Get(int(row) + 1))
		return lo, hi, lo != hi
	}
	return 0, 0, false
}

// NumericalValues returns every value recorded for row, in the order they
// were recorded. It is only meaningful for TypeI64/TypeU64/TypeF64
// columns; see BoolValues/StrValues/BytesValues/IPAddrValues for the other
// categories.
func (c *Column) NumericalValues(row RowId) []NumericalValue {
	lo, hi, ok := c.valueRange(row)
	if !ok {
		return nil
	}
	out := make([]NumericalValue, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, c.numericalAt(i))
	}
	return out
}

// BoolValues returns every value recorded for row, for TypeBool columns.
func (c *Column) BoolValues(row RowId) []bool {
	lo, hi, ok := c.valueRange(row)
	if !ok {
		return nil
	}
	out := make([]bool, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, c.Bool(i))
	}
	return out
}

// StrValues returns every value recorded for row, for TypeStr columns.
func (c *Column) StrValues(row RowId) []string {
	lo, hi, ok := c.valueRange(row)
	if !ok {
		return nil
	}
	out := make([]string, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, c.Str(i))
	}
	return out
}

// BytesValues returns every value recorded for row, for TypeBytes columns.
// Each returned slice aliases the Reader's backing buffer.
func (c *Column) BytesValues(row RowId) [][]byte {
	lo, hi, ok := c.valueRange(row)
	if !ok {
		return nil
	}
	out := make([][]byte, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, c.Bytes(i))
	}
	return out
}

// IPAddrValues returns every value recorded for row, for TypeIPAddr
// columns.
func (c *Column) IPAddrValues(row RowId) [][16]byte {
	lo, hi, ok := c.valueRange(row)
	if !ok {
		return nil
	}
	out := make([][16]byte, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, c.IPAddr(i))
	}
	return out
}

func (c *Column) numericalAt(i int) NumericalValue {
	switch c.typ {
	case TypeI64:
		return I64Value(int64(c.values.Get(i) ^ (1 << 63)))
	case TypeU64:
		return U64Value(c.values.Get(i))
	case TypeF64:
		bits := c.values.Get(i)
		if bits&(1<<63) != 0 {
			bits &^= 1 << 63
		} else {
			bits = ^bits
		}
		return F64Value(math.Float64frombits(bits))
	default:
		return NumericalValue{}
	}
}

// Bool returns the i-th value in the value vector as a bool (i being a
// value-vector position, e.g. from valueRange), for TypeBool columns.
func (c *Column) Bool(i int) bool { return c.values.Get(i) != 0 }

// Str returns the i-th value as a string, for TypeStr columns.
func (c *Column) Str(i int) string {
	id := dictionary.OrderedId(c.values.Get(i))
	return string(c.dict.Term(id))
}

// Bytes returns the i-th value as a byte slice, for TypeBytes columns. The
// returned slice aliases the Reader's backing buffer and must not be
// mutated.
func (c *Column) Bytes(i int) []byte {
	id := dictionary.OrderedId(c.values.Get(i))
	return c.dict.Term(id)
}

// IPAddr returns the i-th value as a 16-byte address, for TypeIPAddr
// columns.
func (c *Column) IPAddr(i int) [16]byte { return c.valuesU128.Get(i) }

// First returns the first numerical value recorded for row, if any. It is
// only meaningful for TypeI64/TypeU64/TypeF64 columns.
func (c *Column) First(row RowId) (NumericalValue, bool) {
	vs := c.NumericalValues(row)
	if len(vs) == 0 {
		return NumericalValue{}, false
	}
	return vs[0], true
}
