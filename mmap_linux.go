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

//go:build linux

package columnar

import (
	"os"

	"golang.org/x/sys/unix"
)

// OpenMmapFile opens the container blob at path by mapping it read-only
// into the address space rather than copying it onto the heap, the same
// approach the teacher's file-backed trailer reader takes. The returned
// closer must be called once the Reader (and anything derived from it) is
// no longer in use.
func OpenMmapFile(path string) (r *Reader, closer func() error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := fi.Size()
	if size == 0 {
		return nil, nil, ErrShortBuffer
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	r, err = Open(data)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, nil, err
	}
	return r, func() error { return unix.Munmap(data) }, nil
}
