package planconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitcli/internal/classify"
	apperrors "admitcli/internal/errors"
	"admitcli/internal/reconcile"
	"admitcli/pkg/contracts/domain"
)

func TestExtractRequiredSubjects(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"物化生（3科必选）", []string{"物", "化", "生"}},
		{"物理、化学", []string{"物", "化"}},
		{"化学,生物", []string{"化", "生"}},
		{"思想政治", []string{"政"}},
		{"地", []string{"地"}},
		{"(化学)", []string{"化"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRequiredSubjects(tt.in))
		})
	}
}

func TestConvertRequirement(t *testing.T) {
	tests := []struct {
		name       string
		group      any
		major      any
		wantLabel  string
		wantSecond string
	}{
		{"blank", nil, "", "", ""},
		{"only carets", "^", nil, "", ""},
		{"unrestricted", "首选物理，再选不限", nil, classify.RequirementUnrestricted, ""},
		{"must", "物化（2科必选）", nil, classify.RequirementAll, "物化"},
		{"must drops first subject", "首选物理,再选化学（必选）", nil, classify.RequirementAll, "化"},
		{"then choose", "首选物理", "再选化学", classify.RequirementAll, "化"},
		{"either", "化学或生物", nil, classify.RequirementAny, "化生"},
		{"either only first subjects", "物理或历史", nil, "", ""},
		{"plain", "^化学", nil, classify.RequirementAll, "化"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, second := ConvertRequirement(tt.group, tt.major)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantSecond, second)
		})
	}
}

func TestSmallConversions(t *testing.T) {
	assert.Equal(t, "001", ToText("^001"))
	assert.Equal(t, "001", ToText("'001"))
	assert.Equal(t, "", ToText(nil))
	assert.Equal(t, "12", ToText(12.0))

	assert.Equal(t, "物", FirstSubject("物理类"))
	assert.Equal(t, "历", FirstSubject("历史"))
	assert.Equal(t, "", FirstSubject("理科"))

	assert.Equal(t, levelVocational, ConvertLevel("专科（高职）"))
	assert.Equal(t, levelUndergraduate, ConvertLevel("本科"))
	assert.Equal(t, "", ConvertLevel(nil))
	assert.Equal(t, "预科", ConvertLevel("预科"))
}

func planTable() *domain.Table {
	t := domain.NewTable(PlanYear, PlanProvince, PlanSchool, PlanCategory, PlanBatch, PlanMajor,
		PlanLevel, PlanGroupCode, PlanRecruitType, PlanRemark, PlanRecruitCount, PlanRecruitCode,
		PlanMajorCode, PlanSource, PlanGroupRequirement, PlanMajorRequirement)
	add := func(major, group string, count any) {
		t.Append(domain.Row{
			PlanYear: 2025.0, PlanProvince: "河北", PlanSchool: "北京大学", PlanCategory: "物理类",
			PlanBatch: "本科批", PlanMajor: major, PlanLevel: "本科", PlanGroupCode: group,
			PlanRecruitType: "", PlanRemark: "", PlanRecruitCount: count, PlanRecruitCode: "^0101",
			PlanMajorCode: "^080101", PlanSource: "官方考试院", PlanGroupRequirement: "化学",
			PlanMajorRequirement: nil,
		})
	}
	add("数学", "^001", 10.0)
	add("物理学", "^001", "5")
	add("化学", "^002", nil)
	return t
}

func TestConvertPlan(t *testing.T) {
	out := ConvertPlan(planTable())

	assert.Equal(t, MajorScoreColumns, out.Columns)
	require.Equal(t, 3, out.Len())

	r := out.Rows[0]
	assert.Equal(t, "北京大学", r[domain.ColSchool])
	assert.Equal(t, levelUndergraduate, r[domain.ColLevel])
	assert.Equal(t, "001", r[domain.ColGroupCode])
	assert.Equal(t, "080101", r[domain.ColMajorCode])
	assert.Equal(t, "0101", r[domain.ColRecruitCode])
	assert.Equal(t, "物", r[domain.ColFirstSubject])
	assert.Equal(t, classify.RequirementAll, r[domain.ColRequirement])
	assert.Equal(t, "化", r[domain.ColSecondSubject])
	assert.Equal(t, "10", r[domain.ColRecruitCountOpt])
	assert.Equal(t, "", r[domain.ColMinScore])

	assert.Equal(t, "2025", Year(planTable()))
	assert.Equal(t, "", Year(domain.NewTable()))
}

func TestToCollegeScores(t *testing.T) {
	out, err := ToCollegeScores(planTable())
	require.NoError(t, err)

	assert.Equal(t, reconcile.CollegeScoreColumns, out.Columns)
	require.Equal(t, 2, out.Len())

	first := out.Rows[0]
	assert.Equal(t, "001", first[domain.ColGroupCode])
	assert.Equal(t, "15", first[reconcile.OutRecruitCount])
	assert.Equal(t, "0101", first[reconcile.OutSchoolRecruit])
	assert.Equal(t, "物理", first[domain.ColFirstSubject])
	assert.Equal(t, "物理类", first[reconcile.OutCategory])

	assert.Equal(t, "", out.Rows[1][reconcile.OutRecruitCount])
}

func TestToCollegeScores_WithoutRecruitCount(t *testing.T) {
	plan := planTable()
	cols := plan.Columns[:0]
	for _, c := range plan.Columns {
		if c != PlanRecruitCount {
			cols = append(cols, c)
		}
	}
	plan.Columns = cols
	for _, r := range plan.Rows {
		delete(r, PlanRecruitCount)
	}

	out, err := ToCollegeScores(plan)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "", out.Rows[0][reconcile.OutRecruitCount])
}

func TestToCollegeScores_EmptyPlan(t *testing.T) {
	_, err := ToCollegeScores(domain.NewTable(PlanSchool))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
}

func TestCompare(t *testing.T) {
	plan := planTable()

	scores := domain.NewTable(domain.ColSchool, domain.ColProvince, domain.ColMajor, domain.ColLevel,
		domain.ColCategory, domain.ColBatch, domain.ColGroupCode)
	scores.Append(domain.Row{
		domain.ColSchool: "北京大学", domain.ColProvince: "河北", domain.ColMajor: "数学",
		domain.ColLevel: "本科", domain.ColCategory: "物理类", domain.ColBatch: "本科批",
		domain.ColGroupCode: "001",
	})

	majors := CompareMajorScores(plan, scores)
	require.Len(t, majors, 3)
	assert.True(t, majors[0].Exists)
	assert.False(t, majors[1].Exists)
	assert.Equal(t, "数学", majors[0].Fields[PlanMajor])
	assert.Equal(t, ComparisonSummary{Total: 3, Found: 1, Missing: 2}, Summarize(majors))

	colleges := CompareCollegeScores(plan, scores)
	assert.Equal(t, ComparisonSummary{Total: 3, Found: 2, Missing: 1}, Summarize(colleges))
}
