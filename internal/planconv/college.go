package planconv

import (
	"math"
	"strconv"
	"strings"

	"admitcli/internal/reconcile"
	"admitcli/pkg/contracts/domain"
)

const recruitTotal = "_recruit_total"

var collegeGroupFields = []string{
	PlanProvince, PlanSchool, PlanCategory, PlanBatch, PlanRecruitType, PlanLevel, PlanGroupCode,
}

// ToCollegeScores aggregates plan rows into the college score layout: one
// row per province, school, category, batch, recruit type, level and group
// code. The first row of each group supplies the descriptive fields and the
// recruit numbers are summed.
func ToCollegeScores(plan *domain.Table) (*domain.Table, error) {
	prepared := plan.Clone()
	for _, f := range collegeGroupFields {
		prepared.AddColumn(f)
	}
	prepared.AddColumn(PlanRecruitCount)
	for _, r := range prepared.Rows {
		r[PlanGroupCode] = ToText(r[PlanGroupCode])
	}

	grouped, err := reconcile.Reconcile(prepared, reconcile.Options{
		KeyFields: collegeGroupFields,
		Selector:  reconcile.First(),
		Aggregations: []reconcile.Aggregation{
			{Field: PlanRecruitCount, Output: recruitTotal, Reducer: reconcile.Sum},
		},
	})
	if err != nil {
		return nil, err
	}

	out := domain.NewTable(reconcile.CollegeScoreColumns...)
	for _, r := range grouped.Rows {
		row := make(domain.Row, len(out.Columns))
		for _, c := range out.Columns {
			row[c] = ""
		}
		category := r.Text(PlanCategory)

		row[domain.ColSchool] = r.Text(PlanSchool)
		row[domain.ColProvince] = r.Text(PlanProvince)
		row[reconcile.OutCategory] = category
		row[domain.ColBatch] = r.Text(PlanBatch)
		row[reconcile.OutRecruitType] = r.Text(PlanRecruitType)
		row[reconcile.OutRecruitCount] = recruitText(r[recruitTotal])
		row[domain.ColSource] = r.Text(PlanSource)
		row[domain.ColGroupCode] = r.Text(PlanGroupCode)
		row[reconcile.OutSchoolRecruit] = ToText(r[PlanRecruitCode])

		switch {
		case strings.Contains(category, "物理类") || category == "物理":
			row[domain.ColFirstSubject] = "物理"
		case strings.Contains(category, "历史类") || category == "历史":
			row[domain.ColFirstSubject] = "历史"
		}
		out.Append(row)
	}
	return out, nil
}

// CollegeTextColumns keep the text number format in the converted college
// layout, where the recruit count is written as text.
var CollegeTextColumns = []string{domain.ColGroupCode, reconcile.OutSchoolRecruit, reconcile.OutRecruitCount}

// recruitText renders a positive total as an integer string and anything
// else as blank.
func recruitText(v any) string {
	f, ok, err := domain.ToFloat(v)
	if err != nil || !ok || f <= 0 {
		return ""
	}
	return strconv.FormatInt(int64(math.Trunc(f)), 10)
}
