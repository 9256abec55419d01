package pipeline

import (
	"context"
	"fmt"
	"strings"

	"admitcli/internal/classify"
	apperrors "admitcli/internal/errors"
	"admitcli/internal/normalize"
	"admitcli/internal/workbook"
	"admitcli/pkg/contracts/domain"
)

// TemplateHeaderRow is where import templates keep their header; rows 1 and
// 2 hold the notice and the year.
const TemplateHeaderRow = 3

// RemarksPass checks every row of a major score sheet and appends the
// classifier's derived columns, including the corrected remark.
func (r *Runner) RemarksPass(ctx context.Context, src Source, progress ProgressFunc) (*Output, error) {
	return r.execute(ctx, domain.PassRemarks, src.Name, progress, func(ctx context.Context, out *Output, report reporter) error {
		doc, err := r.reader.Read(src.Reader, workbook.ReadOptions{
			HeaderRow:   TemplateHeaderRow,
			TextColumns: domain.TextColumns,
		})
		if err != nil {
			return err
		}
		out.InputRows = doc.Table.Len()

		col := remarkColumn(doc.Table.Columns)
		if col == "" {
			return apperrors.NewSchemaError([]string{domain.ColMajorRemark})
		}
		table := doc.Table.Clone()
		table.RenameColumn(col, domain.ColMajorRemark)

		result, err := r.orchestrator.Run(ctx, table,
			func(_ context.Context, _ int, chunk *domain.Table) (*domain.Table, error) {
				return r.classifier.AnnotateTable(chunk), nil
			},
			func(completed, total int) {
				report(completed, total, fmt.Sprintf("chunk %d/%d", completed, total))
			})
		if err != nil {
			return err
		}

		out.OutputRows = result.Len()
		out.Issues = countIssues(result)
		out.Sheets = []workbook.Sheet{{
			Name:        "Sheet1",
			Table:       result,
			TextColumns: domain.TextColumns,
		}}
		return nil
	})
}

// remarkColumn returns the first column whose name contains 专业备注.
func remarkColumn(columns []string) string {
	for _, c := range columns {
		if strings.Contains(c, domain.ColMajorRemark) {
			return c
		}
	}
	return ""
}

// countIssues counts rows carrying at least one correction or failed check.
func countIssues(t *domain.Table) int {
	n := 0
	for _, row := range t.Rows {
		if rowHasIssue(row) {
			n++
		}
	}
	return n
}

func rowHasIssue(row domain.Row) bool {
	if v := row.Text(domain.ColRemarkResult); v != "" && v != normalize.NoIssues {
		return true
	}
	if v := row.Text(domain.ColScoreResult); v != "" && v != classify.NoProblem {
		return true
	}
	return row.Text(domain.ColSchoolResult) == classify.NotMatched ||
		row.Text(domain.ColMajorResult) == classify.NotMatched
}
