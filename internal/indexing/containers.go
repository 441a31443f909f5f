package indexing

// CSR is a compressed sparse row matrix. Row i occupies the half-open
// value range [RowPtr[i], RowPtr[i+1]).
type CSR struct {
	NumCols int
	RowPtr  []int
	ColIdx  []int
	Values  []float32
}

// NumRows returns the number of rows.
func (m *CSR) NumRows() int {
	if len(m.RowPtr) == 0 {
		return 0
	}
	return len(m.RowPtr) - 1
}

// Rows materializes the selected rows as dense float32 slices.
func (m *CSR) Rows(pos []int) [][]float32 {
	out := make([][]float32, len(pos))
	for i, p := range pos {
		row := make([]float32, m.NumCols)
		for j := m.RowPtr[p]; j < m.RowPtr[p+1]; j++ {
			row[m.ColIdx[j]] = m.Values[j]
		}
		out[i] = row
	}
	return out
}

// Frame is a columnar table: named columns of equal length, selected by
// row position. It covers the dataframe-shaped containers that appear in
// tabular pipelines without pulling in a dataframe dependency.
type Frame struct {
	Names   []string
	Columns [][]any
}

// NumRows returns the common column length, or 0 for an empty frame.
func (f *Frame) NumRows() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0])
}

// SelectRows returns a new frame holding the selected rows of every
// column, preserving column order.
func (f *Frame) SelectRows(pos []int) *Frame {
	out := &Frame{
		Names:   append([]string(nil), f.Names...),
		Columns: make([][]any, len(f.Columns)),
	}
	for c, col := range f.Columns {
		out.Columns[c] = Take(col, pos)
	}
	return out
}

// Column returns the values of the named column, or nil if absent.
func (f *Frame) Column(name string) []any {
	for i, n := range f.Names {
		if n == name {
			return f.Columns[i]
		}
	}
	return nil
}
