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

	"github.com/google/uuid"

	"github.com/colstore/columnar/internal/wire"
)

// footerMagic sanity-checks that a byte slice is actually one of ours
// before we trust any of the other footer fields.
const footerMagic = "COLMNR01"

// footerVersion is bumped whenever the container's on-disk layout changes
// in a way older readers cannot interpret.
const footerVersion uint32 = 1

// footerSize is the fixed number of trailing bytes every container blob
// ends with: directory_offset(8) + directory_length(8) +
// directory_compressed(1) + num_docs(4) + segment uuid(16) + version(4) +
// magic(8).
const footerSize = 8 + 8 + 1 + 4 + 16 + 4 + len(footerMagic)

func writeFooter(dst *wire.Buffer, dirOffset, dirLen uint64, dirCompressed bool, numDocs uint32, id uuid.UUID) {
	dst.PutUint64(dirOffset)
	dst.PutUint64(dirLen)
	if dirCompressed {
		dst.PutByte(1)
	} else {
		dst.PutByte(0)
	}
	dst.PutUint32(numDocs)
	dst.PutBytes(id[:])
	dst.PutUint32(footerVersion)
	dst.PutBytes([]byte(footerMagic))
}

type parsedFooter struct {
	dirOffset     uint64
	dirLen        uint64
	dirCompressed bool
	numDocs       uint32
	id            uuid.UUID
	version       uint32
}

func parseFooter(buf []byte) (parsedFooter, error) {
	var f parsedFooter
	if len(buf) < footerSize {
		return f, ErrBadFooter
	}
	tail := buf[len(buf)-footerSize:]
	if string(tail[len(tail)-len(footerMagic):]) != footerMagic {
		return f, ErrBadFooter
	}
	f.dirOffset = binary.LittleEndian.Uint64(tail[0:8])
	f.dirLen = binary.LittleEndian.Uint64(tail[8:16])
	f.dirCompressed = tail[16] != 0
	f.numDocs = binary.LittleEndian.Uint32(tail[17:21])
	copy(f.id[:], tail[21:37])
	f.version = binary.LittleEndian.Uint32(tail[37:41])
	if f.version != footerVersion {
		return f, ErrBadFooter
	}
	return f, nil
}
