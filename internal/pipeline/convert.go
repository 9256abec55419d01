package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/planconv"
	"admitcli/internal/workbook"
	"admitcli/pkg/contracts/domain"
)

// Convert output sheet names.
const (
	MajorScoreSheet     = "专业分"
	CollegeScoreSheet   = "院校分"
	MajorCompareSheet   = "比对1_招生计划vs专业分"
	CollegeCompareSheet = "比对2_招生计划vs院校分"
	SummarySheet        = "统计报告"
)

// ConvertInput names the plan export and the optional score sheets it is
// compared against.
type ConvertInput struct {
	Plan          Source
	MajorScores   *Source
	CollegeScores *Source
}

// planTextColumns keep leading zeros when the plan export is read.
var planTextColumns = []string{
	planconv.PlanYear, planconv.PlanGroupCode, planconv.PlanMajorCode, planconv.PlanRecruitCode,
}

// ConvertPass turns a plan export into the major and college score import
// templates. When score sheets are supplied every plan row is also checked
// for a counterpart in them.
func (r *Runner) ConvertPass(ctx context.Context, in ConvertInput, progress ProgressFunc) (*Output, error) {
	return r.execute(ctx, domain.PassConvert, in.Plan.Name, progress, func(ctx context.Context, out *Output, report reporter) error {
		doc, err := r.reader.Read(in.Plan.Reader, workbook.ReadOptions{TextColumns: planTextColumns})
		if err != nil {
			return err
		}
		plan := doc.Table
		out.InputRows = plan.Len()
		if plan.Len() == 0 {
			return apperrors.NewEmptyResultError("plan export has no rows")
		}

		steps := 2
		if in.MajorScores != nil {
			steps++
		}
		if in.CollegeScores != nil {
			steps++
		}
		done := 0
		step := func(msg string) {
			done++
			report(done, steps, msg)
		}

		year := planconv.Year(plan)
		major := planconv.ConvertPlan(plan)
		step("major score template")

		college, err := planconv.ToCollegeScores(plan)
		if err != nil {
			return err
		}
		step("college score template")

		out.OutputRows = major.Len()
		out.Sheets = []workbook.Sheet{
			{
				Name:         MajorScoreSheet,
				Table:        major,
				TextColumns:  planconv.MajorScoreTextColumns,
				Notice:       planconv.MajorScoreNotice,
				Year:         year,
				YearLabel:    planconv.MajorYearLabel,
				TemplateCode: -1,
				ColumnWidth:  planconv.MajorColumnWidth,
			},
			{
				Name:         CollegeScoreSheet,
				Table:        college,
				TextColumns:  planconv.CollegeTextColumns,
				Notice:       planconv.CollegeScoreNotice,
				Year:         year,
				TemplateCode: 1,
			},
		}

		if in.MajorScores != nil {
			cmp, err := r.compare(*in.MajorScores, plan, majorComparison)
			if err != nil {
				return err
			}
			out.attach(cmp)
			step("compared with major scores")
		}
		if in.CollegeScores != nil {
			cmp, err := r.compare(*in.CollegeScores, plan, collegeComparison)
			if err != nil {
				return err
			}
			out.attach(cmp)
			step("compared with college scores")
		}
		if len(out.Comparisons) > 0 {
			out.Sheets = append(out.Sheets, workbook.Sheet{
				Name:  SummarySheet,
				Table: SummaryTable(out.Comparisons),
			})
		}
		return nil
	})
}

type comparisonResult struct {
	report ComparisonReport
	sheet  workbook.Sheet
}

func (o *Output) attach(c comparisonResult) {
	o.Comparisons = append(o.Comparisons, c.report)
	o.Sheets = append(o.Sheets, c.sheet)
	o.Issues += c.report.Summary.Missing
}

func (r *Runner) compare(src Source, plan *domain.Table, kind comparisonKind) (comparisonResult, error) {
	doc, err := r.reader.Read(src.Reader, workbook.ReadOptions{
		HeaderRow:   TemplateHeaderRow,
		TextColumns: domain.TextColumns,
	})
	if err != nil {
		return comparisonResult{}, fmt.Errorf("%s: %w", src.Name, err)
	}

	results := kind.compare(plan, doc.Table)
	summary := planconv.Summarize(results)
	r.logger.Info("plan compared",
		slog.String("against", kind.target),
		slog.Int("total", summary.Total),
		slog.Int("found", summary.Found),
		slog.Int("missing", summary.Missing))

	return comparisonResult{
		report: ComparisonReport{Name: kind.label, Summary: summary},
		sheet: workbook.Sheet{
			Name:        kind.sheet,
			Table:       ComparisonTable(results, kind),
			TextColumns: []string{planconv.PlanGroupCode, planconv.PlanMajorCode},
		},
	}, nil
}
