package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gofacto/adapters/datareadiness/coercer"
	"gofacto/domain/table"
	"gofacto/internal"
	"gofacto/internal/errors"

	"github.com/xuri/excelize/v2"
)

// maxSampleSize bounds the rows inspected for type inference
const maxSampleSize = 500

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ReaderConfig
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, config ReaderConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	switch ext {
	case ".csv", ".tsv", ".txt":
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, config: config}
}

// ReadTable reads the file and converts it into an analysis table
func (r *DataReader) ReadTable() (*table.Table, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return BuildTable(data, r.config)
}

// ReadData reads data from Excel or CSV files into rectangular text rows
func (r *DataReader) ReadData() (*RawData, error) {
	internal.DefaultLogger.Info("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); err != nil {
		return nil, errors.IOError(r.filePath, err)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	return r.processRows(rows)
}

// readExcelRows reads the configured sheet, or the first one
func (r *DataReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.IOError(r.filePath, err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("%s has no sheets", r.filePath))
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s has no sheet %q", r.filePath, sheet))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(errors.IOError(r.filePath, err), "failed to read sheet %s", sheet)
	}
	internal.DefaultLogger.Debug("[DataReader] sheet %s read in %.2fms (%d rows)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// readCSVRows reads comma, semicolon or tab separated text; the separator
// is taken from the header line
func (r *DataReader) readCSVRows() ([][]string, error) {
	raw, err := os.ReadFile(r.filePath)
	if err != nil {
		return nil, errors.IOError(r.filePath, err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = detectSeparator(string(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("failed to parse %s: %w", r.filePath, err))
	}
	internal.DefaultLogger.Debug("[DataReader] CSV file read in %.2fms (%d rows)",
		float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func detectSeparator(content string) rune {
	header, _, _ := strings.Cut(content, "\n")
	best, count := ',', strings.Count(header, ",")
	for _, sep := range []rune{';', '\t'} {
		if c := strings.Count(header, string(sep)); c > count {
			best, count = sep, c
		}
	}
	return best
}

// processRows trims cells, drops blank lines and pads short rows
func (r *DataReader) processRows(rows [][]string) (*RawData, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s must have a header row and at least one data row", r.filePath))
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	data := &RawData{Source: r.filePath, Headers: headers}
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if len(row) > len(headers) {
			return nil, errors.InvalidInput(fmt.Sprintf("%s: row %d has %d cells, header has %d",
				r.filePath, len(data.Rows)+2, len(row), len(headers)))
		}
		cells := make([]string, len(headers))
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
		}
		data.Rows = append(data.Rows, cells)
	}
	if len(data.Rows) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s has no data rows", r.filePath))
	}

	internal.DefaultLogger.Info("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(data.Rows))
	return data, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// BuildTable infers the kind of every column and converts the raw rows.
// Identifier-like text columns other than the row names are skipped.
func BuildTable(data *RawData, config ReaderConfig) (*table.Table, error) {
	tc := coercer.NewTypeCoercer(config.CoercionConfig)

	rowCol, err := rowNameColumn(data, config, tc)
	if err != nil {
		return nil, err
	}
	var rowNames []string
	if rowCol >= 0 {
		rowNames = data.Column(rowCol)
		if dup := firstDuplicate(rowNames); dup != "" {
			return nil, errors.InvalidInput(fmt.Sprintf("row name %q appears twice in column %q", dup, data.Headers[rowCol]))
		}
	}

	frequency := set(config.Frequency)
	categorical := set(config.Categorical)
	for name := range frequency {
		if categorical[name] {
			return nil, errors.ConfigInvalid(fmt.Sprintf("column %q cannot be both frequency and categorical", name))
		}
	}

	sample := stratifiedSample(len(data.Rows), maxSampleSize)
	var columns []table.Column
	for j, header := range data.Headers {
		if j == rowCol {
			continue
		}
		if header == "" {
			header = fmt.Sprintf("V%d", j+1)
		}
		cells := data.Column(j)

		kind := table.KindCategorical
		switch {
		case frequency[header]:
			kind = table.KindFrequency
		case categorical[header]:
		default:
			analysis := tc.AnalyzeTypeDistribution(pick(cells, sample))
			if analysis.Identifier {
				internal.DefaultLogger.Warn("[DataReader] skipping column %q: %d distinct labels look like identifiers",
					header, analysis.DistinctCount)
				continue
			}
			kind = analysis.RecommendedKind
			if kind == table.KindContinuous && config.AllFrequencies {
				kind = table.KindFrequency
			}
		}

		switch kind {
		case table.KindCategorical:
			columns = append(columns, table.Categorical(header, tc.CoerceLabels(cells)))
		default:
			values, unparsed := tc.CoerceNumeric(cells)
			if unparsed > 0 {
				internal.DefaultLogger.Warn("[DataReader] column %q: %d cells are not numbers and read as missing", header, unparsed)
			}
			if kind == table.KindFrequency {
				columns = append(columns, table.Frequency(header, values))
			} else {
				columns = append(columns, table.Continuous(header, values))
			}
		}
	}

	if missing := unknown(data.Headers, config.Frequency, config.Categorical); missing != "" {
		return nil, errors.ConfigInvalid(fmt.Sprintf("no column named %q in %s", missing, data.Source))
	}

	tbl, err := table.New(rowNames, columns...)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return tbl, nil
}

// commonRowNameColumns are headers that name rows rather than variables
var commonRowNameColumns = []string{"", "id", "name", "row", "rownames", "row_names", "key", "individual"}

// rowNameColumn returns the index of the row-name column, or -1. An
// explicit header wins; otherwise the first column qualifies when its
// header is a common identifier name or its cells are unique text.
func rowNameColumn(data *RawData, config ReaderConfig, tc *coercer.TypeCoercer) (int, error) {
	if config.NoRowNames {
		return -1, nil
	}
	if config.RowNames != "" {
		for j, h := range data.Headers {
			if h == config.RowNames {
				return j, nil
			}
		}
		return -1, errors.ConfigInvalid(fmt.Sprintf("no row-name column %q in %s", config.RowNames, data.Source))
	}
	if len(data.Headers) < 2 {
		return -1, nil
	}

	first := data.Column(0)
	header := strings.ToLower(data.Headers[0])
	for _, name := range commonRowNameColumns {
		if header == name && isValidRowNameColumn(first) {
			return 0, nil
		}
	}
	analysis := tc.AnalyzeTypeDistribution(first)
	if analysis.NumericRatio < tc.Config().NumericThreshold && isValidRowNameColumn(first) {
		return 0, nil
	}
	return -1, nil
}

// isValidRowNameColumn requires non-empty, unique cells
func isValidRowNameColumn(cells []string) bool {
	for _, c := range cells {
		if c == "" {
			return false
		}
	}
	return firstDuplicate(cells) == ""
}

func firstDuplicate(cells []string) string {
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		if seen[c] {
			return c
		}
		seen[c] = true
	}
	return ""
}

func set(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

func unknown(headers []string, lists ...[]string) string {
	have := set(headers)
	for _, list := range lists {
		for _, name := range list {
			if !have[name] {
				return name
			}
		}
	}
	return ""
}

func pick(cells []string, idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = cells[i]
	}
	return out
}

// stratifiedSample returns evenly distributed row indices across the dataset
func stratifiedSample(totalRows, sampleSize int) []int {
	if sampleSize >= totalRows {
		sampleSize = totalRows
	}
	indices := make([]int, sampleSize)
	step := float64(totalRows) / float64(sampleSize)
	for i := range indices {
		indices[i] = int(math.Floor(float64(i) * step))
	}
	return indices
}
