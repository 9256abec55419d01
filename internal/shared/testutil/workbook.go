package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes a single-sheet workbook into t.TempDir and returns its
// path. Cells in preamble are set first (for example "B2" holding a year),
// then the header goes on headerRow (1-based) with rows below it.
func WriteWorkbook(t *testing.T, name string, preamble map[string]any, headerRow int, header []string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for cell, v := range preamble {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}

	start, err := excelize.CoordinatesToCellName(1, headerRow)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, start, &header))

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, headerRow+1+i)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteSimpleWorkbook writes a workbook whose header is on the first row.
func WriteSimpleWorkbook(t *testing.T, name string, header []string, rows [][]any) string {
	t.Helper()
	return WriteWorkbook(t, name, nil, 1, header, rows)
}
