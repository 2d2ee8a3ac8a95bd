// Package privacy holds the curator-chosen privacy metadata and the binary
// mechanism that turns exact dyadic histograms into differentially-private
// ones.
package privacy

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"sketchdb/table"
)

// ColumnMetadata is the curator's budget and quantization grid for one
// column: every private histogram over the column spends at most Epsilon and
// quantizes to the dyadic grid of Granularity-wide leaves over
// [GlobalMin, GlobalMax].
type ColumnMetadata struct {
	Epsilon     float64 `yaml:"epsilon"`
	Granularity float64 `yaml:"granularity"`
	GlobalMin   float64 `yaml:"globalMin"`
	GlobalMax   float64 `yaml:"globalMax"`
}

// Schema maps column names to their privacy metadata. It is loaded once per
// dataset and read-only for the lifetime of every private sketch against it.
type Schema struct {
	Columns map[string]ColumnMetadata `yaml:"columns"`
}

// Parse decodes and validates a yaml privacy schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Mark(
			errors.Wrap(err, "malformed privacy schema"),
			table.ErrInvalidArgument)
	}
	for name, md := range s.Columns {
		if err := md.validate(); err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}
	}
	return &s, nil
}

// LoadFile reads a privacy schema from a yaml file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (md ColumnMetadata) validate() error {
	if md.Epsilon <= 0 {
		return errors.Mark(
			errors.Newf("epsilon %v must be positive", md.Epsilon),
			table.ErrInvalidArgument)
	}
	if md.Granularity <= 0 {
		return errors.Mark(
			errors.Newf("granularity %v must be positive", md.Granularity),
			table.ErrInvalidArgument)
	}
	if md.GlobalMax <= md.GlobalMin {
		return errors.Mark(
			errors.Newf("empty range [%v, %v]", md.GlobalMin, md.GlobalMax),
			table.ErrInvalidArgument)
	}
	return nil
}

// Get returns the metadata for one column.
func (s *Schema) Get(column string) (ColumnMetadata, error) {
	md, ok := s.Columns[column]
	if !ok {
		return ColumnMetadata{}, errors.Mark(
			errors.Newf("no privacy metadata for column %q", column),
			table.ErrInvalidArgument)
	}
	return md, nil
}

// Range resolves the histogram range for a column: the caller's bounds when
// supplied, the curator's global bounds otherwise.
func (s *Schema) Range(column string, min, max *float64) (float64, float64, error) {
	md, err := s.Get(column)
	if err != nil {
		return 0, 0, err
	}
	lo, hi := md.GlobalMin, md.GlobalMax
	if min != nil {
		lo = *min
	}
	if max != nil {
		hi = *max
	}
	return lo, hi, nil
}
