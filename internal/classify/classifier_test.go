package classify

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admitcli/internal/shared/testutil"
	"admitcli/internal/workbook"
	"admitcli/pkg/contracts/domain"
)

func newTestClassifier() *Classifier {
	return New(References{
		Schools:     NewReferenceSet([]string{"北京大学", " 清华大学 "}),
		MajorCombos: NewReferenceSet([]string{"临床医学本科"}),
	}, nil)
}

func TestCheckSchool(t *testing.T) {
	c := newTestClassifier()

	assert.Equal(t, Matched, c.CheckSchool(" 北京大学"))
	assert.Equal(t, Matched, c.CheckSchool("清华大学"))
	assert.Equal(t, NotMatched, c.CheckSchool("北京大学医学部"))
	assert.Equal(t, NameEmpty, c.CheckSchool("  "))
	assert.Equal(t, NameEmpty, c.CheckSchool(nil))

	unavailable := New(References{}, nil)
	assert.Equal(t, CannotVerify, unavailable.CheckSchool("北京大学"))
	assert.Equal(t, NameEmpty, unavailable.CheckSchool(""))
}

func TestCheckMajorCombo(t *testing.T) {
	c := newTestClassifier()

	assert.Equal(t, Matched, c.CheckMajorCombo("临床医学 ", " 本科"))
	assert.Equal(t, NotMatched, c.CheckMajorCombo("临床医学", "专科"))
	assert.Equal(t, MissingData, c.CheckMajorCombo(nil, "本科"))
	assert.Equal(t, MissingData, c.CheckMajorCombo("临床医学", ""))
	assert.Equal(t, MissingData, c.CheckMajorCombo(math.NaN(), "本科"))
	assert.Equal(t, CannotVerify, New(References{}, nil).CheckMajorCombo("临床医学", "本科"))
}

func TestCheckScores(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name          string
		max, avg, min any
		want          string
	}{
		{"consistent", 90.0, 85.0, 80.0, NoProblem},
		{"max below avg", 80.0, 90.0, 70.0, "max score (80) < average score (90)"},
		{"all inverted", 70.0, 80.0, 90.0,
			"max score (70) < average score (80)；max score (70) < min score (90)；average score (80) < min score (90)"},
		{"missing avg is unconstrained", 80.0, nil, 70.0, NoProblem},
		{"string scores", "600.5", "", "601", "max score (600.5) < min score (601)"},
		{"all missing", nil, nil, nil, NoProblem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.CheckScores(tt.max, tt.avg, tt.min))
		})
	}

	assert.Contains(t, c.CheckScores("abc", 1.0, 1.0), "score format error")
}

func TestDecomposeRequirement(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		input         any
		wantLabel     string
		wantSecondary string
	}{
		{"不限", RequirementUnrestricted, ""},
		{"物理不限", RequirementUnrestricted, ""},
		{"化", RequirementAll, "化"},
		{"化且生", RequirementAll, "化生"},
		{"化或生", RequirementAny, "化生"},
		{"化生", "", ""},
		{nil, "", ""},
		{"  ", "", ""},
	}

	for _, tt := range tests {
		label, secondary := c.DecomposeRequirement(tt.input)
		assert.Equal(t, tt.wantLabel, label, "input %v", tt.input)
		assert.Equal(t, tt.wantSecondary, secondary, "input %v", tt.input)
	}
}

func TestNormalizeCategory(t *testing.T) {
	cat, first := NormalizeCategory("物理")
	assert.Equal(t, "物理类", cat)
	assert.Equal(t, "物", first)

	cat, first = NormalizeCategory("历史类")
	assert.Equal(t, "历史类", cat)
	assert.Equal(t, "历", first)

	cat, first = NormalizeCategory(" 物理类 ")
	assert.Equal(t, " 物理类 ", cat)
	assert.Equal(t, "物", first)

	cat, first = NormalizeCategory("理科")
	assert.Equal(t, "理科", cat)
	assert.Equal(t, "", first)
}

func TestAnnotateTable(t *testing.T) {
	c := newTestClassifier()

	in := domain.NewTable(domain.ColSchool, domain.ColMajorRemark, domain.ColCategory)
	in.Append(domain.Row{domain.ColSchool: "北京大学", domain.ColMajorRemark: "（A）（A）", domain.ColCategory: "物理"})
	in.Append(domain.Row{domain.ColSchool: "某大学", domain.ColMajorRemark: nil, domain.ColCategory: "文科"})

	out := c.AnnotateTable(in)

	assert.Equal(t, []string{
		domain.ColSchool, domain.ColMajorRemark, domain.ColCategory,
		domain.ColSchoolResult, domain.ColRemarkResult, domain.ColRemarkFixed, domain.ColFirstSubject,
	}, out.Columns)

	first := out.Rows[0]
	assert.Equal(t, Matched, first[domain.ColSchoolResult])
	assert.Equal(t, "duplicate bracket content: 'A'", first[domain.ColRemarkResult])
	assert.Equal(t, "（A）", first[domain.ColRemarkFixed])
	assert.Equal(t, "物理类", first[domain.ColCategory])
	assert.Equal(t, "物", first[domain.ColFirstSubject])

	second := out.Rows[1]
	assert.Equal(t, NotMatched, second[domain.ColSchoolResult])
	assert.Equal(t, "no issues", second[domain.ColRemarkResult])
	assert.Equal(t, "", second[domain.ColRemarkFixed])

	// input rows are untouched
	assert.Equal(t, "物理", in.Rows[0][domain.ColCategory])
	assert.NotContains(t, in.Rows[0], domain.ColSchoolResult)
}

func TestDerivedColumnsSkipsAbsentInputs(t *testing.T) {
	assert.Empty(t, DerivedColumns([]string{"其他"}))
	assert.Equal(t, []string{domain.ColScoreResult},
		DerivedColumns([]string{domain.ColMaxScore, domain.ColAvgScore, domain.ColMinScore}))
	assert.Empty(t, DerivedColumns([]string{domain.ColMajor}))
}

func TestLoadReferences(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	schools := testutil.WriteSimpleWorkbook(t, "school_data.xlsx",
		[]string{domain.RefSchoolColumn}, [][]any{{"北京大学"}, {"清华大学"}})

	refs := LoadReferences(workbook.NewReader(logger), logger, schools, filepath.Join(t.TempDir(), "missing.xlsx"))

	require.True(t, refs.Schools.Available())
	assert.Equal(t, 2, refs.Schools.Len())
	assert.False(t, refs.MajorCombos.Available())
	assert.True(t, logs.ContainsMessage("failed to load reference set"))

	c := New(refs, nil)
	assert.Equal(t, Matched, c.CheckSchool("清华大学"))
	assert.Equal(t, CannotVerify, c.CheckMajorCombo("临床医学", "本科"))
}
