package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

func TestReconcile_MinScoreWithMaxAggregate(t *testing.T) {
	in := domain.NewTable("school", "score")
	in.Append(domain.Row{"school": "A", "score": 600.0})
	in.Append(domain.Row{"school": "A", "score": 650.0})

	out, err := Reconcile(in, Options{
		KeyFields:    []string{"school"},
		Selector:     MinBy("score"),
		Aggregations: []Aggregation{{Field: "score", Output: "max_score", Reducer: Max}},
	})
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, 600.0, out.Rows[0]["score"])
	assert.Equal(t, 650.0, out.Rows[0]["max_score"])
	assert.Equal(t, []string{"school", "score", "max_score"}, out.Columns)
}

func TestReconcile_TiesKeepFirstRow(t *testing.T) {
	in := domain.NewTable("school", "score", "batch")
	in.Append(domain.Row{"school": "A", "score": 600.0, "batch": "first"})
	in.Append(domain.Row{"school": "A", "score": 600.0, "batch": "second"})
	in.Append(domain.Row{"school": "A", "score": 610.0, "batch": "third"})

	out, err := Reconcile(in, Options{KeyFields: []string{"school"}, Selector: MinBy("score")})
	require.NoError(t, err)
	assert.Equal(t, "first", out.Rows[0]["batch"])
}

func TestReconcile_GroupsInFirstAppearanceOrder(t *testing.T) {
	in := domain.NewTable("school", "province", "n")
	in.Append(domain.Row{"school": "B", "province": "北京", "n": 1.0})
	in.Append(domain.Row{"school": "A", "province": "北京", "n": 2.0})
	in.Append(domain.Row{"school": "B ", "province": "北京", "n": "3"})
	in.Append(domain.Row{"school": "B", "province": nil, "n": nil})

	out, err := Reconcile(in, Options{
		KeyFields:    []string{"school", "province"},
		Aggregations: []Aggregation{{Field: "n", Reducer: Sum}},
	})
	require.NoError(t, err)

	require.Equal(t, 3, out.Len())
	assert.Equal(t, "B", out.Rows[0]["school"])
	assert.Equal(t, 4.0, out.Rows[0]["n"])
	assert.Equal(t, "A", out.Rows[1]["school"])
	assert.Equal(t, 0.0, out.Rows[2]["n"])
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	in := domain.NewTable("school", "n")
	in.Append(domain.Row{"school": "A", "n": 1.0})

	_, err := Reconcile(in, Options{
		KeyFields:    []string{"school"},
		Aggregations: []Aggregation{{Field: "n", Output: "total", Reducer: Sum}},
	})
	require.NoError(t, err)
	assert.NotContains(t, in.Rows[0], "total")
	assert.Equal(t, []string{"school", "n"}, in.Columns)
}

func TestReconcile_Errors(t *testing.T) {
	in := domain.NewTable("school", "score")
	in.Append(domain.Row{"school": "A", "score": "n/a"})
	in.Append(domain.Row{"school": "B", "score": nil})

	_, err := Reconcile(in, Options{KeyFields: []string{"school", "province"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, err.Error(), "province")

	_, err = Reconcile(in, Options{KeyFields: []string{"school"}, Required: []string{"score"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
}

func TestReconcile_MissingAggregationField(t *testing.T) {
	in := domain.NewTable("school", "score")
	in.Append(domain.Row{"school": "A", "score": 600})

	out, err := Reconcile(in, Options{
		KeyFields:    []string{"school"},
		Aggregations: []Aggregation{{Field: "scroe", Output: "total", Reducer: Sum}},
	})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.Contains(t, err.Error(), "scroe")
}

func TestReducers(t *testing.T) {
	assert.Equal(t, 0.0, Sum(nil))
	assert.Nil(t, Max(nil))
	assert.Equal(t, 5.0, Sum([]float64{2, 3}))
	assert.Equal(t, 3.0, Max([]float64{2, 3, 1}))
}

func generalRow(school, category string, minScore, maxScore, recruit any, group string) domain.Row {
	row := domain.Row{}
	for _, c := range GeneralColumns {
		row[c] = nil
	}
	row[domain.ColSchool] = school
	row[domain.ColProvince] = "河北"
	row[domain.ColLevel] = "本科"
	row[domain.ColCategory] = category
	row[domain.ColBatch] = "本科批"
	row[domain.ColMinScore] = minScore
	row[domain.ColMaxScore] = maxScore
	row[domain.ColRecruitCountOpt] = recruit
	row[domain.ColGroupCode] = group
	row[domain.ColRecruitCode] = "0101"
	row[domain.ColFirstSubject] = "物"
	return row
}

func TestExtractCollegeScores(t *testing.T) {
	in := domain.NewTable(GeneralColumns...)
	in.Append(generalRow("北京大学", "物理类", "650", "690", "10", "001"))
	in.Append(generalRow("北京大学", "物理类", "640", "700", "5", "001"))
	in.Append(generalRow("北京大学", "物理类", "630", "660", nil, "002"))
	in.Append(generalRow("清华大学", "物理类", "", "700", "3", "001"))

	out, err := ExtractCollegeScores(in)
	require.NoError(t, err)

	assert.Equal(t, CollegeScoreColumns, out.Columns)
	require.Equal(t, 2, out.Len())

	first := out.Rows[0]
	assert.Equal(t, "北京大学", first[domain.ColSchool])
	assert.Equal(t, "物理类", first[OutCategory])
	assert.Equal(t, "640", first[domain.ColMinScore])
	assert.Equal(t, "700", first[domain.ColMaxScore])
	assert.Equal(t, 15.0, first[OutRecruitCount])
	assert.Equal(t, 0.0, first[OutAdmitCount])
	assert.Equal(t, "001", first[domain.ColGroupCode])
	assert.Equal(t, "0101", first[OutSchoolRecruit])
	assert.Equal(t, "物理", first[domain.ColFirstSubject])
	assert.Equal(t, "", first[OutSelectLevel])

	second := out.Rows[1]
	assert.Equal(t, "630", second[domain.ColMinScore])
	assert.Equal(t, 0.0, second[OutRecruitCount])
}

func TestExtractCollegeScores_Errors(t *testing.T) {
	_, err := ExtractCollegeScores(domain.NewTable(domain.ColSchool))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))

	in := domain.NewTable(GeneralColumns...)
	in.Append(generalRow("北京大学", "物理类", "", "690", "10", ""))
	_, err = ExtractCollegeScores(in)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
}

func TestExtractArtScores(t *testing.T) {
	row := func(school, direction string, minScore any) domain.Row {
		r := domain.Row{}
		for _, c := range ArtColumns {
			r[c] = ""
		}
		r[domain.ColSchool] = school
		r[domain.ColMajorDirection] = direction
		r[domain.ColMinScore] = minScore
		r[domain.ColFirstSubject] = "历"
		return r
	}

	in := domain.NewTable(append(append([]string{}, ArtColumns...), "多余列")...)
	in.Append(row("中央美术学院", "油画", "580"))
	in.Append(row("中央美术学院", "油画", "560"))
	in.Append(row("中央美术学院", "国画", "570"))
	in.Append(row("中央美术学院", "国画", "abc"))

	out, err := ExtractArtScores(in)
	require.NoError(t, err)

	assert.Equal(t, ArtColumns, out.Columns)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, 560.0, out.Rows[0][domain.ColMinScore])
	assert.Equal(t, "历史", out.Rows[0][domain.ColFirstSubject])
	assert.Equal(t, "国画", out.Rows[1][domain.ColMajorDirection])
	assert.NotContains(t, out.Rows[0], "多余列")
}
