package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/shared/testutil"
	"admitcli/pkg/contracts/domain"
)

func scoreRow(school, major, remark string) domain.Row {
	return domain.Row{
		domain.ColSchool:         school,
		domain.ColProvince:       "河北",
		domain.ColMajor:          major,
		domain.ColMajorRemarkOpt: remark,
		domain.ColLevel:          "本科",
		domain.ColCategory:       "物理类",
		domain.ColBatch:          "本科批",
		domain.ColRecruitTypeOpt: nil,
	}
}

func planRow(school, major, remark, code string) domain.Row {
	return domain.Row{
		"学校":                 school,
		"省份":                 "河北",
		"专业":                 major,
		"备注":                 remark,
		"层次":                 "本科",
		"科类":                 "物理类",
		"批次":                 "本科批",
		"招生类型":               "",
		domain.ColGroupCode: code,
	}
}

func tables() (*domain.Table, *domain.Table) {
	primary := domain.NewTable(PlanKeyFields...)
	primary.Append(scoreRow("北京大学", "数学", ""))
	primary.Append(scoreRow("北京大学", "物理学", "含实验班"))
	primary.Append(scoreRow("北京大学", "化学", ""))
	primary.Append(scoreRow("北京大学", "化学", "中外合作"))
	primary.Append(scoreRow("清华大学", "建筑学", ""))

	lookup := domain.NewTable("学校", "省份", "专业", "备注", "层次", "科类", "批次", "招生类型", domain.ColGroupCode)
	lookup.Append(planRow("北京大学", "数学", "", "001"))
	lookup.Append(planRow("北京大学", "物理学", "不同备注", "002"))
	lookup.Append(planRow("北京大学", "化学", "", "003"))
	lookup.Append(planRow("北京大学", "化学", "", "004"))
	return primary, lookup
}

func TestMatch(t *testing.T) {
	primary, lookup := tables()

	res, err := Match(primary, lookup, PlanOptions())
	require.NoError(t, err)

	codes := make([]any, 0, res.Table.Len())
	for _, r := range res.Table.Rows {
		codes = append(codes, r[domain.ColGroupCode])
	}
	// Remarks are not part of the key, so 物理学 matches despite the
	// differing remark; 化学 is duplicated on both sides.
	assert.Equal(t, []any{"001", "002", "", "", ""}, codes)
	assert.Equal(t, 2, res.Assigned)
	assert.Equal(t, 1, res.Unmatched)

	require.Len(t, res.Ambiguous, 2)
	assert.Equal(t, 2, res.Ambiguous[0].Index)
	assert.Equal(t, 3, res.Ambiguous[1].Index)
	assert.Equal(t, []string{"003", "004"}, res.Ambiguous[0].Codes())
	assert.Equal(t, "中外合作", res.Ambiguous[1].Fields[domain.ColMajorRemarkOpt])
	assert.Contains(t, res.Ambiguous[0].Candidates[0].Fields, domain.ColMajorRemarkOpt)
}

func TestMatch_DoesNotModifyInputs(t *testing.T) {
	primary, lookup := tables()

	_, err := Match(primary, lookup, PlanOptions())
	require.NoError(t, err)

	assert.False(t, primary.HasColumn(domain.ColGroupCode))
	assert.True(t, lookup.HasColumn("学校"))
	assert.NotContains(t, primary.Rows[0], domain.ColGroupCode)
}

func TestMatch_DuplicateInPrimaryOnly(t *testing.T) {
	primary := domain.NewTable(PlanKeyFields...)
	primary.Append(scoreRow("北京大学", "数学", "一"))
	primary.Append(scoreRow("北京大学", "数学", "二"))

	lookup := domain.NewTable("学校", "省份", "专业", "备注", "层次", "科类", "批次", "招生类型", domain.ColGroupCode)
	lookup.Append(planRow("北京大学", "数学", "", "001"))

	res, err := Match(primary, lookup, PlanOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Assigned)
	require.Len(t, res.Ambiguous, 2)
	assert.Len(t, res.Ambiguous[0].Candidates, 1)
	assert.Equal(t, "", res.Table.Rows[0][domain.ColGroupCode])
}

func TestMatch_MissingKeyField(t *testing.T) {
	primary, lookup := tables()

	_, err := Match(domain.NewTable(domain.ColSchool), lookup, PlanOptions())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))

	opts := PlanOptions()
	opts.Rename = nil
	_, err = Match(primary, lookup, opts)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, err.Error(), domain.ColSchool)
}

func TestMatcher_Logs(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	primary, lookup := tables()

	_, err := New(PlanOptions(), logger).Match(primary, lookup)
	require.NoError(t, err)
	assert.True(t, handler.ContainsMessage("match completed"))
	assert.True(t, handler.ContainsAttr("component", "matcher"))
}
