package department

// Table is a header plus textual rows, as read from an HTML table.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append concatenates the rows of other onto t. Rows are aligned by column
// name; columns that only exist in other are added to the header and earlier
// rows get empty cells for them.
func (t *Table) Append(other *Table) {
	if other == nil {
		return
	}
	if len(t.Header) == 0 && len(t.Rows) == 0 {
		t.Header = append([]string(nil), other.Header...)
		for _, row := range other.Rows {
			t.Rows = append(t.Rows, append([]string(nil), row...))
		}
		return
	}

	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		index[h] = i
	}
	for _, h := range other.Header {
		if _, ok := index[h]; !ok {
			index[h] = len(t.Header)
			t.Header = append(t.Header, h)
		}
	}
	for i := range t.Rows {
		t.Rows[i] = pad(t.Rows[i], len(t.Header))
	}

	for _, row := range other.Rows {
		out := make([]string, len(t.Header))
		for i, h := range other.Header {
			if i < len(row) {
				out[index[h]] = row[i]
			}
		}
		t.Rows = append(t.Rows, out)
	}
}

func pad(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}
