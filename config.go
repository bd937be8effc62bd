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
	"os"

	"sigs.k8s.io/yaml"

	"github.com/colstore/columnar/optionalindex"
)

// Config holds the tuning knobs a ColumnarWriter is built with. Use
// DefaultConfig or LoadConfig; a zero Config behaves the same as
// DefaultConfig, since a zero DenseThreshold falls back to the package
// default (see denseThreshold).
type Config struct {
	// DenseThreshold is the population (number of present rows) at or above
	// which an Optional index block is stored Dense rather than Sparse.
	DenseThreshold int `json:"denseThreshold"`

	// InitialArenaCapacity preallocates room for that many column writers
	// in a new ColumnarWriter's arena, amortizing the first few Record*
	// calls' reallocations for callers who know roughly how many distinct
	// columns they'll see.
	InitialArenaCapacity int `json:"initialArenaCapacity"`

	// CompressDictionary, if true, runs each column's serialized term
	// block through zstd before it is written to the sink.
	CompressDictionary bool `json:"compressDictionary"`

	// CompressDirectory, if true, runs the container's directory block
	// through zstd before it is written to the sink. The hot value
	// vectors are never compressed, regardless of these flags, since the
	// reader must be able to address them without a decompression pass.
	CompressDirectory bool `json:"compressDirectory"`
}

// DefaultConfig returns the tuning values specified by SPEC_FULL.md §3/§4.E:
// a 4096-row dense threshold, no arena preallocation, and compression off
// (keeping the reader's zero-copy Open path simple by default).
func DefaultConfig() Config {
	return Config{
		DenseThreshold:       4096,
		InitialArenaCapacity: 0,
		CompressDictionary:   false,
		CompressDirectory:    false,
	}
}

// denseThreshold returns cfg.DenseThreshold, falling back to the package
// default if a caller built a Config by hand and left it unset.
func (cfg Config) denseThreshold() int {
	if cfg.DenseThreshold <= 0 {
		return optionalindex.DenseThreshold
	}
	return cfg.DenseThreshold
}

// LoadConfig reads a YAML file at path and unmarshals it on top of
// DefaultConfig, so a file only needs to mention the fields it overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
