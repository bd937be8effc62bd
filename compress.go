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

import "github.com/klauspost/compress/zstd"

// zstdEncoder/zstdDecoder are process-lifetime singletons, matching the
// teacher's own ion/blockfmt/compression.go convention of reusing one
// encoder/decoder pair rather than constructing one per call. Only the
// dictionary term block and the directory block ever pass through these;
// the value vectors never do, so the reader's hot Values(row) path stays a
// zero-copy slice read regardless of these settings.
var zstdEncoder, _ = zstd.NewWriter(nil)
var zstdDecoder, _ = zstd.NewReader(nil)

func zstdCompress(src []byte) []byte {
	return zstdEncoder.EncodeAll(src, make([]byte, 0, len(src)))
}

func zstdDecompress(src []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(src, nil)
}
