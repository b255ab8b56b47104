package probe

import (
	"github.com/tiai1/tiai-solutions/internal/dataset"
)

// SampleSize caps Column.SampleValues.
const SampleSize = 10

// Column describes one column of a dataset. It is recomputed whenever the
// dataset is replaced.
type Column struct {
	Name         string          `json:"name"`
	Type         dataset.Kind    `json:"type"`
	SampleValues []dataset.Value `json:"sampleValues"`
	UniqueCount  int             `json:"uniqueCount"`
	Min          *float64        `json:"min,omitempty"`
	Max          *float64        `json:"max,omitempty"`
}

// Columns is an ordered list of descriptors.
type Columns []Column

// Names returns column names in order.
func (cs Columns) Names() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

// OfType returns the columns of kind k, preserving order.
func (cs Columns) OfType(k dataset.Kind) Columns {
	var out Columns
	for _, c := range cs {
		if c.Type == k {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a column by name.
func (cs Columns) Lookup(name string) (Column, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Profile derives one descriptor per dataset column. A column is typed number,
// boolean or date only when every non-empty value has that kind; anything
// mixed, or entirely empty, is text.
func Profile(ds dataset.Dataset) Columns {
	if len(ds.Columns) == 0 || len(ds.Rows) == 0 {
		return nil
	}
	out := make(Columns, 0, len(ds.Columns))
	for _, name := range ds.Columns {
		out = append(out, profileColumn(name, ds.Rows))
	}
	return out
}

func profileColumn(name string, rows []dataset.Row) Column {
	col := Column{Name: name, Type: dataset.KindText}

	seen := make(map[any]struct{})
	var (
		kind    dataset.Kind
		typed   int
		mixed   bool
		lo, hi  float64
		haveNum bool
	)
	for _, r := range rows {
		v, ok := r[name]
		if !ok {
			continue
		}
		k := v.Key()
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			if len(col.SampleValues) < SampleSize {
				col.SampleValues = append(col.SampleValues, v)
			}
		}
		if v.IsEmpty() {
			continue
		}
		if typed == 0 {
			kind = v.Kind()
		} else if v.Kind() != kind {
			mixed = true
		}
		typed++
		if f, ok := v.Float(); ok {
			if !haveNum || f < lo {
				lo = f
			}
			if !haveNum || f > hi {
				hi = f
			}
			haveNum = true
		}
	}
	col.UniqueCount = len(seen)
	if typed > 0 && !mixed {
		col.Type = kind
	}
	if col.Type == dataset.KindNumber {
		col.Min, col.Max = &lo, &hi
	}
	return col
}
