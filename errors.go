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
	"errors"
	"fmt"
)

// Sentinel errors returned from reader paths. Callers should compare with
// errors.Is, since these are frequently wrapped with positional context.
var (
	// ErrInvalidTag is returned when a cardinality or column-type byte in a
	// blob does not correspond to a known value.
	ErrInvalidTag = errors.New("columnar: invalid on-disk tag")

	// ErrShortBuffer is returned when a blob is truncated relative to what
	// its own framing claims.
	ErrShortBuffer = errors.New("columnar: buffer shorter than framing indicates")

	// ErrUnknownColumn is returned by Reader.Column when no column with the
	// requested name and category exists.
	ErrUnknownColumn = errors.New("columnar: no such column")

	// ErrBadFooter is returned when the trailing footer of a blob cannot be
	// parsed or does not match the expected version.
	ErrBadFooter = errors.New("columnar: malformed footer")
)

// usageError panics; it is used for conditions that can only be triggered by
// a programming error in the caller (a zero byte in a column name, a doc id
// that regresses within a column), never by untrusted input or I/O. This
// mirrors the teacher's convention of panicking on invariant violations
// inside hot encode paths rather than threading an error return through
// every record call.
func usageError(format string, args ...any) {
	panic("columnar: usage error: " + fmt.Sprintf(format, args...))
}

// decodeErrorf wraps a sentinel decode error with the offending byte offset.
func decodeErrorf(sentinel error, what string, offset int) error {
	return fmt.Errorf("columnar: decode %s at offset %d: %w", what, offset, sentinel)
}
