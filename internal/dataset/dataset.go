package dataset

import "slices"

// Row maps a column name to its typed cell.
type Row map[string]Value

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is a parsed table. Every row carries exactly the names in Columns.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Empty reports whether the dataset has no rows.
func (d Dataset) Empty() bool { return len(d.Rows) == 0 }

// HasColumn reports whether name is one of the dataset's columns.
func (d Dataset) HasColumn(name string) bool { return slices.Contains(d.Columns, name) }

// Clone deep-copies the dataset.
func (d Dataset) Clone() Dataset {
	out := Dataset{Columns: slices.Clone(d.Columns)}
	if d.Rows != nil {
		out.Rows = make([]Row, len(d.Rows))
		for i, r := range d.Rows {
			out.Rows[i] = r.Clone()
		}
	}
	return out
}
