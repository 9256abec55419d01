// Package workbook reads admission worksheets into domain tables and writes
// tables back out as xlsx, keeping code-like columns as text.
package workbook

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

// ReadOptions controls how a worksheet is turned into a table.
type ReadOptions struct {
	// Sheet to read; the first sheet when empty.
	Sheet string
	// HeaderRow is the 1-based row holding column names. Defaults to 1.
	HeaderRow int
	// TextColumns are kept as strings even when they look numeric.
	TextColumns []string
	// Cells are single addresses (such as "B2") captured alongside the table.
	Cells []string
}

// Document is a parsed worksheet.
type Document struct {
	Sheet string
	Table *domain.Table
	Cells map[string]string
}

// Reader parses xlsx files.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With(slog.String("component", "workbook_reader"))}
}

// ReadFile opens path and parses one sheet.
func (r *Reader) ReadFile(path string, opts ReadOptions) (*Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()
	return r.parse(f, opts)
}

// Read parses a workbook from src, typically an upload body.
func (r *Reader) Read(src io.Reader, opts ReadOptions) (*Document, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()
	return r.parse(f, opts)
}

// ReadColumn returns the trimmed, non-empty values of one column from a
// workbook whose header is on the first row.
func (r *Reader) ReadColumn(path, column string) ([]string, error) {
	doc, err := r.ReadFile(path, ReadOptions{TextColumns: []string{column}})
	if err != nil {
		return nil, err
	}
	if missing := doc.Table.MissingColumns(column); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	values := make([]string, 0, doc.Table.Len())
	for _, row := range doc.Table.Rows {
		if v := row.Text(column); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

func (r *Reader) parse(f *excelize.File, opts ReadOptions) (*Document, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
		if sheet == "" {
			sheet = f.GetSheetName(0)
		}
	}
	headerRow := opts.HeaderRow
	if headerRow <= 0 {
		headerRow = 1
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	if len(rows) < headerRow {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("sheet %q has %d rows, header expected on row %d", sheet, len(rows), headerRow), nil)
	}

	doc := &Document{Sheet: sheet, Cells: make(map[string]string, len(opts.Cells))}
	for _, addr := range opts.Cells {
		v, err := f.GetCellValue(sheet, addr)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read cell %s", addr), err)
		}
		doc.Cells[addr] = strings.TrimSpace(v)
	}

	// Cells past the header still become columns, named positionally.
	header := rows[headerRow-1]
	width := len(header)
	for _, cells := range rows[headerRow:] {
		width = max(width, len(cells))
	}
	if width > len(header) {
		header = append(append(make([]string, 0, width), header...), make([]string, width-len(header))...)
	}
	columns := headerNames(header)
	text := make(map[string]bool, len(opts.TextColumns))
	for _, c := range opts.TextColumns {
		text[c] = true
	}

	table := domain.NewTable(columns...)
	skipped := 0
	for _, cells := range rows[headerRow:] {
		if blank(cells) {
			skipped++
			continue
		}
		row := make(domain.Row, len(columns))
		for i, name := range columns {
			var raw string
			if i < len(cells) {
				raw = cells[i]
			}
			row[name] = cellValue(raw, text[name])
		}
		table.Append(row)
	}
	doc.Table = table

	r.logger.Debug("worksheet parsed",
		slog.String("sheet", sheet),
		slog.Int("header_row", headerRow),
		slog.Int("columns", len(columns)),
		slog.Int("rows", table.Len()),
		slog.Int("blank_rows_skipped", skipped))

	return doc, nil
}

// headerNames trims header cells and makes them unique. Blank headers get a
// positional name; repeats get a ".N" suffix.
func headerNames(cells []string) []string {
	seen := make(map[string]int, len(cells))
	names := make([]string, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cellValue types a raw cell. Numbers with a leading zero stay strings so
// codes such as "001" survive.
func cellValue(raw string, asText bool) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if asText {
		return s
	}
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}
