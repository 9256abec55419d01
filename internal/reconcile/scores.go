package reconcile

import (
	"strings"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

// GeneralColumns are required in a general score sheet.
var GeneralColumns = []string{
	domain.ColSchool, domain.ColProvince, domain.ColMajor, domain.ColMajorDirection,
	domain.ColMajorRemarkOpt, domain.ColLevel, domain.ColCategory, domain.ColBatch,
	domain.ColRecruitTypeOpt, domain.ColMaxScore, domain.ColMinScore, domain.ColAvgScore,
	domain.ColMinRankOpt, domain.ColRecruitCountOpt, domain.ColSource, domain.ColGroupCode,
	domain.ColFirstSubject, domain.ColRequirement, domain.ColSecondSubject,
	domain.ColMajorCode, domain.ColRecruitCode, domain.ColAdmitCountOpt,
}

// GeneralTextColumns are read as strings from a general score sheet.
var GeneralTextColumns = []string{
	domain.ColGroupCode, domain.ColMajorCode, domain.ColRecruitCode,
	domain.ColMaxScore, domain.ColMinScore, domain.ColMinRankOpt,
	domain.ColRecruitCountOpt, domain.ColAdmitCountOpt,
}

// ArtColumns are required in an art or sports score sheet, in output order.
var ArtColumns = []string{
	domain.ColSchool, domain.ColProvince, domain.ColArtMajor, domain.ColMajorDirection,
	domain.ColMajorRemarkOpt, domain.ColMajorLevel, domain.ColMajorKind, domain.ColSchoolExam,
	domain.ColRecruitKind, domain.ColBatch, domain.ColMinScore, domain.ColMinRankOpt,
	domain.ColGroupCode, domain.ColFirstSubject, domain.ColRequirement, domain.ColSecondSubject,
	domain.ColRecruitCode, domain.ColUnifiedScore, domain.ColCultureScore, domain.ColMajorCode,
	domain.ColSource,
}

// ArtTextColumns keep the text number format in art output.
var ArtTextColumns = []string{
	domain.ColGroupCode, domain.ColMajorCode, domain.ColRecruitCode, domain.ColMinScore,
	domain.ColMinRankOpt, domain.ColUnifiedScore, domain.ColCultureScore,
}

// College score layout.
const (
	OutCategory      = "招生类别"
	OutRecruitType   = "招生类型"
	OutSelectLevel   = "选测等级"
	OutMaxRank       = "最高位次"
	OutMinRank       = "最低位次"
	OutAvgRank       = "平均位次"
	OutAdmitCount    = "录取人数"
	OutRecruitCount  = "招生人数"
	OutLineCategory  = "省控线科类"
	OutLineBatch     = "省控线批次"
	OutLineRemark    = "省控线备注"
	OutSchoolRecruit = "院校招生代码"
)

// CollegeScoreColumns is the column order of the college score template.
var CollegeScoreColumns = []string{
	domain.ColSchool, domain.ColProvince, OutCategory, domain.ColBatch, OutRecruitType,
	OutSelectLevel, domain.ColMaxScore, domain.ColMinScore, domain.ColAvgScore,
	OutMaxRank, OutMinRank, OutAvgRank, OutAdmitCount, OutRecruitCount, domain.ColSource,
	OutLineCategory, OutLineBatch, OutLineRemark, domain.ColGroupCode,
	domain.ColFirstSubject, OutSchoolRecruit,
}

// CollegeScoreTextColumns keep the text number format in the college layout.
var CollegeScoreTextColumns = []string{
	domain.ColGroupCode, OutSchoolRecruit, domain.ColMaxScore, domain.ColMinScore, OutMinRank,
}

// collegeScoreSource maps layout columns to the general sheet columns they
// are copied from. Layout columns not listed stay blank.
var collegeScoreSource = map[string]string{
	domain.ColSchool:       domain.ColSchool,
	domain.ColProvince:     domain.ColProvince,
	OutCategory:            domain.ColCategory,
	domain.ColBatch:        domain.ColBatch,
	OutRecruitType:         domain.ColRecruitTypeOpt,
	domain.ColMaxScore:     domain.ColMaxScore,
	domain.ColMinScore:     domain.ColMinScore,
	OutMinRank:             domain.ColMinRankOpt,
	domain.ColSource:       domain.ColSource,
	domain.ColGroupCode:    domain.ColGroupCode,
	domain.ColFirstSubject: domain.ColFirstSubject,
	OutSchoolRecruit:       domain.ColRecruitCode,
}

var firstSubjectAliases = map[string]string{"历": "历史", "物": "物理"}

// ExtractCollegeScores reduces a general score sheet to one row per school,
// province, level, category, batch, recruit type and (when present) group
// code. The representative is the row with the lowest minimum score; the
// maximum score is the group maximum and the head counts are group sums.
func ExtractCollegeScores(t *domain.Table) (*domain.Table, error) {
	if missing := t.MissingColumns(GeneralColumns...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	keys := []string{
		domain.ColSchool, domain.ColProvince, domain.ColLevel,
		domain.ColCategory, domain.ColBatch, domain.ColRecruitTypeOpt,
	}
	if anyValue(t, domain.ColGroupCode) {
		keys = append(keys, domain.ColGroupCode)
	}

	grouped, err := Reconcile(prepareScores(t), Options{
		KeyFields: keys,
		Required:  []string{domain.ColMinScore},
		Selector:  MinBy(domain.ColMinScore),
		Aggregations: []Aggregation{
			{Field: domain.ColMaxScore, Reducer: Max},
			{Field: domain.ColRecruitCountOpt, Reducer: Sum},
			{Field: domain.ColAdmitCountOpt, Reducer: Sum},
		},
	})
	if err != nil {
		return nil, err
	}

	out := domain.NewTable(CollegeScoreColumns...)
	for _, r := range grouped.Rows {
		row := make(domain.Row, len(CollegeScoreColumns))
		for _, col := range CollegeScoreColumns {
			row[col] = ""
			if src, ok := collegeScoreSource[col]; ok {
				row[col] = r.Text(src)
			}
		}
		row[OutAdmitCount] = r[domain.ColAdmitCountOpt]
		row[OutRecruitCount] = r[domain.ColRecruitCountOpt]
		out.Append(row)
	}
	return out, nil
}

// ExtractArtScores reduces an art or sports sheet to the lowest-scoring row
// per school, province, direction, level, kind, category, batch and (when
// present) group code. No fields are aggregated.
func ExtractArtScores(t *domain.Table) (*domain.Table, error) {
	if missing := t.MissingColumns(ArtColumns...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	keys := []string{
		domain.ColSchool, domain.ColProvince, domain.ColMajorDirection, domain.ColMajorLevel,
		domain.ColMajorKind, domain.ColRecruitKind, domain.ColBatch,
	}
	if anyValue(t, domain.ColGroupCode) {
		keys = append(keys, domain.ColGroupCode)
	}

	grouped, err := Reconcile(prepareScores(t), Options{
		KeyFields: keys,
		Required:  []string{domain.ColMinScore},
		Selector:  MinBy(domain.ColMinScore),
	})
	if err != nil {
		return nil, err
	}

	out := domain.NewTable(ArtColumns...)
	for _, r := range grouped.Rows {
		row := make(domain.Row, len(ArtColumns))
		for _, col := range ArtColumns {
			row[col] = r[col]
		}
		out.Append(row)
	}
	return out, nil
}

// prepareScores copies t with unparsable numbers blanked and first-subject
// abbreviations expanded.
func prepareScores(t *domain.Table) *domain.Table {
	numeric := []string{
		domain.ColMinScore, domain.ColMaxScore, domain.ColRecruitCountOpt,
		domain.ColAdmitCountOpt, domain.ColUnifiedScore, domain.ColCultureScore,
	}

	out := t.Clone()
	for _, r := range out.Rows {
		for _, col := range numeric {
			if _, present := r[col]; !present {
				continue
			}
			if v, ok, err := r.Float(col); err == nil && ok {
				r[col] = v
			} else {
				r[col] = nil
			}
		}
		if _, present := r[domain.ColFirstSubject]; present {
			s := r.Text(domain.ColFirstSubject)
			if full, ok := firstSubjectAliases[s]; ok {
				s = full
			}
			r[domain.ColFirstSubject] = s
		}
	}
	return out
}

func anyValue(t *domain.Table, col string) bool {
	for _, r := range t.Rows {
		if strings.TrimSpace(domain.Stringify(r[col])) != "" {
			return true
		}
	}
	return false
}
