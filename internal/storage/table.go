package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Table is a numeric CSV with a header row.
type Table struct {
	Header []string
	Rows   [][]float64
}

func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: empty csv")
	}

	t := &Table{
		Header: records[0],
		Rows:   make([][]float64, 0, len(records)-1),
	}
	for i, rec := range records[1:] {
		row := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: row %d column %s: %w", i+1, t.Header[j], err)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("storage: no column %q", name)
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

func (t *Table) indices(names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		out[i] = t.Index(n)
		if out[i] < 0 {
			return nil, fmt.Errorf("storage: no column %q", n)
		}
	}
	return out, nil
}
