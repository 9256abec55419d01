package pipeline

import (
	"context"
	"fmt"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/planconv"
	"admitcli/internal/reconcile"
	"admitcli/internal/workbook"
	"admitcli/pkg/contracts/domain"
)

// Score sheet templates.
const (
	TemplateGeneral = "general"
	TemplateArt     = "art"
)

// yearCell holds the enrollment year in every import template.
const yearCell = "B2"

// ScoresPass reduces a major score sheet to college scores. The general
// template is written in the college score import layout with the year read
// from the input; the art and sports template keeps its own columns.
func (r *Runner) ScoresPass(ctx context.Context, src Source, template string, progress ProgressFunc) (*Output, error) {
	return r.execute(ctx, domain.PassScores, src.Name, progress, func(ctx context.Context, out *Output, report reporter) error {
		var text []string
		switch template {
		case TemplateGeneral, "":
			template = TemplateGeneral
			text = reconcile.GeneralTextColumns
		case TemplateArt:
			text = reconcile.ArtTextColumns
		default:
			return apperrors.NewAppValidationError(fmt.Sprintf("unknown score template %q", template))
		}

		doc, err := r.reader.Read(src.Reader, workbook.ReadOptions{
			HeaderRow:   TemplateHeaderRow,
			TextColumns: text,
			Cells:       []string{yearCell},
		})
		if err != nil {
			return err
		}
		out.InputRows = doc.Table.Len()
		report(0, 1, "grouping "+template+" scores")

		if template == TemplateArt {
			result, err := reconcile.ExtractArtScores(doc.Table)
			if err != nil {
				return err
			}
			out.OutputRows = result.Len()
			out.Sheets = []workbook.Sheet{{
				Name:        "Sheet1",
				Table:       result,
				TextColumns: reconcile.ArtTextColumns,
			}}
			report(1, 1, "done")
			return nil
		}

		result, err := reconcile.ExtractCollegeScores(doc.Table)
		if err != nil {
			return err
		}
		out.OutputRows = result.Len()
		out.Sheets = []workbook.Sheet{{
			Name:         "Sheet1",
			Table:        result,
			TextColumns:  reconcile.CollegeScoreTextColumns,
			Notice:       planconv.CollegeScoreNotice,
			Year:         doc.Cells[yearCell],
			TemplateCode: 1,
		}}
		report(1, 1, "done")
		return nil
	})
}
