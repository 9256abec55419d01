package pipeline

import (
	"fmt"

	"admitcli/internal/planconv"
	"admitcli/pkg/contracts/domain"
)

// Comparison sheet columns.
const (
	ColSerial      = "序号"
	ColMatchStatus = "匹配状态"
	ColMatchNote   = "匹配说明"

	ColCompareKind = "比对类型"
	ColTotal       = "总记录数"
	ColFound       = "匹配记录数"
	ColFoundRate   = "匹配率"

	statusFound   = "存在"
	statusMissing = "不存在"
)

// comparisonKind describes one plan comparison and its export layout.
type comparisonKind struct {
	label   string
	target  string
	sheet   string
	keys    []string
	info    []string
	compare func(plan, scores *domain.Table) []planconv.Comparison
}

var majorComparison = comparisonKind{
	label:   "比对1：招生计划 vs 专业分",
	target:  "专业分",
	sheet:   MajorCompareSheet,
	keys:    planconv.MajorKeyFields,
	info:    []string{planconv.PlanRecruitCount, planconv.PlanTuition, planconv.PlanDuration, planconv.PlanMajorCode},
	compare: planconv.CompareMajorScores,
}

var collegeComparison = comparisonKind{
	label:   "比对2：招生计划 vs 院校分",
	target:  "院校分",
	sheet:   CollegeCompareSheet,
	keys:    planconv.CollegeKeyFields,
	info:    []string{planconv.PlanMajor, planconv.PlanLevel, planconv.PlanRecruitCount},
	compare: planconv.CompareCollegeScores,
}

// ComparisonTable lays comparison results out one row per plan row.
func ComparisonTable(results []planconv.Comparison, kind comparisonKind) *domain.Table {
	cols := []string{ColSerial}
	cols = append(cols, kind.keys...)
	cols = append(cols, kind.info...)
	cols = append(cols, ColMatchStatus, ColMatchNote)

	out := domain.NewTable(cols...)
	for _, c := range results {
		row := domain.Row{ColSerial: c.Index + 1}
		for _, f := range kind.keys {
			row[f] = c.Fields.Text(f)
		}
		for _, f := range kind.info {
			row[f] = c.Fields.Text(f)
		}
		if c.Exists {
			row[ColMatchStatus] = statusFound
			row[ColMatchNote] = fmt.Sprintf("该记录在%s文件中存在", kind.target)
		} else {
			row[ColMatchStatus] = statusMissing
			row[ColMatchNote] = fmt.Sprintf("该记录在%s文件中不存在", kind.target)
		}
		out.Append(row)
	}
	return out
}

// SummaryTable has one row per comparison with its match rate.
func SummaryTable(reports []ComparisonReport) *domain.Table {
	out := domain.NewTable(ColCompareKind, ColTotal, ColFound, ColFoundRate)
	for _, r := range reports {
		out.Append(domain.Row{
			ColCompareKind: r.Name,
			ColTotal:       r.Summary.Total,
			ColFound:       r.Summary.Found,
			ColFoundRate:   MatchRate(r.Summary),
		})
	}
	return out
}

// MatchRate renders found/total as a percentage with one decimal.
func MatchRate(s planconv.ComparisonSummary) string {
	if s.Total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Found)/float64(s.Total)*100)
}
