package excel

// RawData is a file read as text: one header row and rectangular data rows
type RawData struct {
	Source  string
	Headers []string
	Rows    [][]string
}

// Column returns the cells of column j
func (d *RawData) Column(j int) []string {
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[j]
	}
	return out
}
