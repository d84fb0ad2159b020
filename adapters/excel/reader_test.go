package excel

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gofacto/domain/table"
	"gofacto/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTable_CSVInference(t *testing.T) {
	path := writeFile(t, "wines.csv", `,fruity,colour,origin
W1,4.2,red,Loire
W2,3.1,white,Loire
W3,NA,red,Rhone
W4,2.7,rose,Rhone
`)
	tbl, err := NewDataReader(path, DefaultReaderConfig()).ReadTable()
	require.NoError(t, err)

	assert.Equal(t, []string{"W1", "W2", "W3", "W4"}, tbl.RowNames)
	require.Equal(t, 3, tbl.NumColumns())
	assert.Equal(t, table.KindContinuous, tbl.Columns[0].Kind)
	assert.True(t, math.IsNaN(tbl.Columns[0].Values[2]))
	assert.Equal(t, table.KindCategorical, tbl.Columns[1].Kind)
	assert.Equal(t, []string{"Loire", "Loire", "Rhone", "Rhone"}, tbl.Columns[2].Labels)
}

func TestReadTable_SemicolonAndFrequencies(t *testing.T) {
	path := writeFile(t, "haireye.csv", "eye;Black;Brown;Red\nBrown;68;119;26\nBlue;20;84;17\n")
	cfg := DefaultReaderConfig()
	cfg.AllFrequencies = true
	tbl, err := NewDataReader(path, cfg).ReadTable()
	require.NoError(t, err)

	assert.Equal(t, []string{"Brown", "Blue"}, tbl.RowNames)
	for _, col := range tbl.Columns {
		assert.Equal(t, table.KindFrequency, col.Kind, col.Name)
	}
	assert.Equal(t, []float64{119, 84}, tbl.Columns[1].Values)
}

func TestReadTable_EuropeanDecimalsAndForcedKinds(t *testing.T) {
	path := writeFile(t, "mixed.csv", "id;income;zone;visits\na;1.234,5;1;3\nb;2.000,25;2;0\nc;980,75;1;7\n")
	cfg := DefaultReaderConfig()
	cfg.Categorical = []string{"zone"}
	cfg.Frequency = []string{"visits"}
	tbl, err := NewDataReader(path, cfg).ReadTable()
	require.NoError(t, err)

	assert.Equal(t, []float64{1234.5, 2000.25, 980.75}, tbl.Columns[0].Values)
	assert.Equal(t, table.KindCategorical, tbl.Columns[1].Kind)
	assert.Equal(t, []string{"1", "2", "1"}, tbl.Columns[1].Labels)
	assert.Equal(t, table.KindFrequency, tbl.Columns[2].Kind)
}

func TestReadTable_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athletes.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet("scores")
	require.NoError(t, err)
	rows := [][]interface{}{
		{"athlete", "100m", "long_jump", "competition"},
		{"SEBRLE", 11.04, 7.58, "Decastar"},
		{"CLAY", 10.76, 7.40, "Decastar"},
		{"KARPOV", 11.02, 7.30, "OG"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("scores", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	cfg := DefaultReaderConfig()
	cfg.Sheet = "scores"
	tbl, err := NewDataReader(path, cfg).ReadTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"SEBRLE", "CLAY", "KARPOV"}, tbl.RowNames)
	assert.InDelta(t, 10.76, tbl.Columns[0].Values[1], 1e-12)
	assert.Equal(t, table.KindCategorical, tbl.Columns[2].Kind)

	cfg.Sheet = "missing"
	_, err = NewDataReader(path, cfg).ReadTable()
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadTable_Errors(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "none.csv"), DefaultReaderConfig()).ReadTable()
	assert.Equal(t, errors.CodeIOError, errors.GetCode(err))
	assert.ErrorIs(t, err, os.ErrNotExist)

	headerOnly := writeFile(t, "h.csv", "a,b\n")
	_, err = NewDataReader(headerOnly, DefaultReaderConfig()).ReadTable()
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	ok := writeFile(t, "ok.csv", "a,b\n1,2\n3,4\n")
	cfg := DefaultReaderConfig()
	cfg.Frequency = []string{"c"}
	_, err = NewDataReader(ok, cfg).ReadTable()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	cfg = DefaultReaderConfig()
	cfg.RowNames = "nope"
	_, err = NewDataReader(ok, cfg).ReadTable()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestReadTable_NumericFirstColumnIsData(t *testing.T) {
	path := writeFile(t, "plain.csv", "x,y\n1,2\n3,5\n4,4\n")
	tbl, err := NewDataReader(path, DefaultReaderConfig()).ReadTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, tbl.RowNames)
	assert.Equal(t, 2, tbl.NumColumns())
}

func TestStratifiedSample(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, stratifiedSample(3, 500))
	idx := stratifiedSample(1000, 4)
	assert.Equal(t, []int{0, 250, 500, 750}, idx)
}
