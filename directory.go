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
	"encoding/binary"

	"github.com/colstore/columnar/internal/wire"
)

// directoryEntry records where one column's frame starts. The directory
// itself is always written in (name, category) order, matching the order
// columns were serialized in, so a reader doing binary search by name can
// then linearly scan the handful of entries sharing that name to find the
// category it wants (§11: columns may share a name across categories).
type directoryEntry struct {
	name   []byte
	typ    ColumnType
	offset uint64
}

// buildDirectoryPayload writes the varint-length-prefixed directory table
// described in SPEC_FULL.md §4.H: a count, then per entry
// (name length, name bytes, column-type byte, 8-byte little-endian frame
// offset). The same length-prefix shape as the dictionary term block is
// reused deliberately so both are parsed by the same kind of loop.
func buildDirectoryPayload(entries []directoryEntry) []byte {
	var buf wire.Buffer
	buf.PutUvarint(uint64(len(entries)))
	for _, e := range entries {
		buf.PutUvarint(uint64(len(e.name)))
		buf.PutBytes(e.name)
		buf.PutByte(byte(e.typ))
		buf.PutUint64(e.offset)
	}
	return buf.Bytes()
}

// parseDirectoryPayload is buildDirectoryPayload's inverse.
func parseDirectoryPayload(buf []byte) ([]directoryEntry, error) {
	count, n := wire.Uvarint(buf)
	if n == 0 {
		return nil, ErrBadFooter
	}
	off := n
	entries := make([]directoryEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		nameLen, k := wire.Uvarint(buf[off:])
		if k == 0 {
			return nil, decodeErrorf(ErrShortBuffer, "directory entry name length", off)
		}
		off += k
		if off+int(nameLen)+1+8 > len(buf) {
			return nil, decodeErrorf(ErrShortBuffer, "directory entry", off)
		}
		name := buf[off : off+int(nameLen)]
		off += int(nameLen)
		typ := ColumnType(buf[off])
		if typ > TypeStr {
			return nil, decodeErrorf(ErrInvalidTag, "directory entry column type", off)
		}
		off++
		offset := binary.LittleEndian.Uint64(buf[off:])
		off += 8
		entries = append(entries, directoryEntry{name: name, typ: typ, offset: offset})
	}
	return entries, nil
}
