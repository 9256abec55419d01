package workbook

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

const (
	// textNumFmt is the built-in "@" number format.
	textNumFmt = 49

	defaultSheet = "Sheet1"

	// TemplateMarker labels the template-code cell on row 2.
	TemplateMarker = "模板类型（模板标识不要更改）"
	yearLabel      = "招生年"
	noticeHeight   = 215
)

// Sheet describes one worksheet to write.
type Sheet struct {
	Name  string
	Table *domain.Table
	// TextColumns receive the text number format so codes keep leading zeros.
	TextColumns []string

	// Template layout. When Notice or Year is set, row 1 holds the notice
	// merged across the header width, row 2 holds the year and template
	// code, and the header moves to row 3.
	Notice string
	Year   string
	// TemplateCode fills C2; 0 means 1 and a negative code leaves C2 and the
	// marker in D2 out.
	TemplateCode int
	// YearLabel replaces the default 招生年 label in A2.
	YearLabel string
	// ColumnWidth, when positive, is applied to every header column.
	ColumnWidth float64
}

func (s Sheet) templated() bool {
	return s.Notice != "" || s.Year != ""
}

// Writer serializes tables to xlsx.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// WriteFile writes sheets to path.
func (w *Writer) WriteFile(path string, sheets ...Sheet) error {
	f, err := w.build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to save %s", path), err)
	}
	w.logger.Info("workbook written", slog.String("path", path), slog.Int("sheets", len(sheets)))
	return nil
}

// Write streams sheets to dst.
func (w *Writer) Write(dst io.Writer, sheets ...Sheet) error {
	f, err := w.build(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(dst); err != nil {
		return apperrors.NewStorageError("failed to write workbook", err)
	}
	return nil
}

func (w *Writer) build(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, apperrors.NewAppValidationError("no sheets to write")
	}

	f := excelize.NewFile()
	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = defaultSheet
		}
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				f.Close()
				return nil, apperrors.NewStorageError("failed to name sheet", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, apperrors.NewStorageError(fmt.Sprintf("failed to add sheet %q", name), err)
		}
		if err := writeSheet(f, name, s); err != nil {
			f.Close()
			return nil, apperrors.NewStorageError(fmt.Sprintf("failed to write sheet %q", name), err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, name string, s Sheet) error {
	table := s.Table
	if table == nil {
		table = domain.NewTable()
	}

	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: textNumFmt})
	if err != nil {
		return err
	}
	text := make(map[string]bool, len(s.TextColumns))
	for _, c := range s.TextColumns {
		text[c] = true
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return err
	}

	if s.ColumnWidth > 0 && len(table.Columns) > 0 {
		if err := sw.SetColWidth(1, len(table.Columns), s.ColumnWidth); err != nil {
			return err
		}
	}

	row := 1
	if s.templated() {
		if err := writePreamble(f, sw, s, len(table.Columns)); err != nil {
			return err
		}
		row = 3
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := sw.SetRow(cellName(1, row), header); err != nil {
		return err
	}

	for _, r := range table.Rows {
		row++
		values := make([]interface{}, len(table.Columns))
		for i, c := range table.Columns {
			v := r[c]
			if text[c] {
				values[i] = excelize.Cell{StyleID: textStyle, Value: domain.Stringify(v)}
				continue
			}
			values[i] = v
		}
		if err := sw.SetRow(cellName(1, row), values); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writePreamble(f *excelize.File, sw *excelize.StreamWriter, s Sheet, width int) error {
	if width < 4 {
		width = 4
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1",
		[]interface{}{excelize.Cell{StyleID: wrap, Value: s.Notice}},
		excelize.RowOpts{Height: noticeHeight}); err != nil {
		return err
	}

	var year interface{} = s.Year
	if y, err := strconv.ParseFloat(strings.TrimSpace(s.Year), 64); err == nil {
		year = int(y)
	}
	code := s.TemplateCode
	if code == 0 {
		code = 1
	}
	label := s.YearLabel
	if label == "" {
		label = yearLabel
	}
	row2 := []interface{}{label, year, code, TemplateMarker}
	if code < 0 {
		row2 = row2[:2]
	}
	if err := sw.SetRow("A2", row2); err != nil {
		return err
	}
	return sw.MergeCell("A1", cellName(width, 1))
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
