package pipeline

import (
	"context"
	"strings"

	"admitcli/internal/matcher"
	"admitcli/internal/workbook"
	"admitcli/pkg/contracts/domain"
)

// Ambiguous sheet columns.
const (
	ColRowNumber  = "行号"
	ColCandidates = "候选专业组代码"

	// ResultSheet and AmbiguousSheet name the match output sheets.
	ResultSheet    = "Sheet1"
	AmbiguousSheet = "待确认"
)

// MatchPass fills the group code of every score row from a plan export.
// Rows whose key repeats in either table are left blank and listed on a
// second sheet for manual resolution.
func (r *Runner) MatchPass(ctx context.Context, primary, lookup Source, progress ProgressFunc) (*Output, error) {
	return r.execute(ctx, domain.PassMatch, primary.Name, progress, func(ctx context.Context, out *Output, report reporter) error {
		scores, err := r.reader.Read(primary.Reader, workbook.ReadOptions{
			HeaderRow:   TemplateHeaderRow,
			TextColumns: domain.TextColumns,
		})
		if err != nil {
			return err
		}
		out.InputRows = scores.Table.Len()
		report(1, 3, "score sheet loaded")

		plan, err := r.reader.Read(lookup.Reader, workbook.ReadOptions{
			TextColumns: []string{domain.ColGroupCode},
		})
		if err != nil {
			return err
		}
		report(2, 3, "plan loaded")

		res, err := matcher.New(matcher.PlanOptions(), r.logger).Match(scores.Table, plan.Table)
		if err != nil {
			return err
		}
		report(3, 3, "matched")

		out.Match = res
		out.OutputRows = res.Table.Len()
		out.Issues = len(res.Ambiguous)
		out.Sheets = MatchSheets(res, res.Table)
		return nil
	})
}

// ResolveMatch applies the choices of a finished review session and
// returns the sheets to write.
func ResolveMatch(res *matcher.Result, session matcher.Session) []workbook.Sheet {
	return []workbook.Sheet{{
		Name:        ResultSheet,
		Table:       session.Apply(res.Table),
		TextColumns: domain.TextColumns,
	}}
}

// MatchSheets returns the matched table plus, when some rows are
// ambiguous, the review sheet.
func MatchSheets(res *matcher.Result, table *domain.Table) []workbook.Sheet {
	sheets := []workbook.Sheet{{
		Name:        ResultSheet,
		Table:       table,
		TextColumns: domain.TextColumns,
	}}
	if len(res.Ambiguous) > 0 {
		sheets = append(sheets, workbook.Sheet{
			Name:        AmbiguousSheet,
			Table:       AmbiguousTable(res),
			TextColumns: []string{ColCandidates},
		})
	}
	return sheets
}

// AmbiguousTable lists each ambiguous row with its key fields and the
// distinct candidate codes. Row numbers are 1-based data rows.
func AmbiguousTable(res *matcher.Result) *domain.Table {
	keys := matcher.PlanKeyFields
	out := domain.NewTable(append(append([]string{ColRowNumber}, keys...), ColCandidates)...)
	for _, a := range res.Ambiguous {
		row := domain.Row{
			ColRowNumber:  a.Index + 1,
			ColCandidates: strings.Join(a.Codes(), "、"),
		}
		for _, k := range keys {
			row[k] = a.Fields.Text(k)
		}
		out.Append(row)
	}
	return out
}
