// Package classify annotates admission rows with validation results:
// school and major lookups, score ordering, subject requirements and
// corrected remarks.
package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"admitcli/internal/normalize"
	"admitcli/pkg/contracts/domain"
)

// Lookup results.
const (
	Matched      = "matched"
	NotMatched   = "not matched"
	NameEmpty    = "name is empty"
	MissingData  = "missing data"
	CannotVerify = "cannot verify"
	NoProblem    = "no problem"
)

// Subject requirement labels, written verbatim into the output sheet.
const (
	RequirementUnrestricted = "不限科目专业组"
	RequirementAll          = "单科、多科均需选考"
	RequirementAny          = "多门选考"

	markUnrestricted = "不限"
	markAnd          = "且"
	markOr           = "或"
)

// categoryAliases maps bare first-subject categories to their class name.
var categoryAliases = map[string]string{
	"物理": "物理类",
	"历史": "历史类",
}

var categoryClasses = map[string]bool{"物理类": true, "历史类": true}

// Classifier runs the per-row checks against injected reference sets.
type Classifier struct {
	refs       References
	normalizer *normalize.Normalizer
}

// New creates a Classifier. A nil normalizer selects the default tables.
func New(refs References, n *normalize.Normalizer) *Classifier {
	if refs.Schools == nil {
		refs.Schools = Unavailable()
	}
	if refs.MajorCombos == nil {
		refs.MajorCombos = Unavailable()
	}
	if n == nil {
		n = normalize.New(nil, nil)
	}
	return &Classifier{refs: refs, normalizer: n}
}

// CheckSchool looks the trimmed school name up in the reference set.
func (c *Classifier) CheckSchool(v any) string {
	name := strings.TrimSpace(domain.Stringify(v))
	if name == "" {
		return NameEmpty
	}
	if !c.refs.Schools.Available() {
		return CannotVerify
	}
	if c.refs.Schools.Contains(name) {
		return Matched
	}
	return NotMatched
}

// CheckMajorCombo looks up the major name concatenated with its level.
func (c *Classifier) CheckMajorCombo(major, level any) string {
	if domain.IsMissing(major) || domain.IsMissing(level) {
		return MissingData
	}
	if !c.refs.MajorCombos.Available() {
		return CannotVerify
	}
	combo := strings.TrimSpace(domain.Stringify(major)) + strings.TrimSpace(domain.Stringify(level))
	if c.refs.MajorCombos.Contains(combo) {
		return Matched
	}
	return NotMatched
}

// CheckScores verifies max >= avg >= min. Missing scores are unconstrained.
func (c *Classifier) CheckScores(maxScore, avgScore, minScore any) string {
	hi, hiOK, err := domain.ToFloat(maxScore)
	if err != nil {
		return "score format error: " + err.Error()
	}
	avg, avgOK, err := domain.ToFloat(avgScore)
	if err != nil {
		return "score format error: " + err.Error()
	}
	lo, loOK, err := domain.ToFloat(minScore)
	if err != nil {
		return "score format error: " + err.Error()
	}

	var issues []string
	violation := func(aName string, a float64, bName string, b float64) {
		issues = append(issues, fmt.Sprintf("%s (%s) < %s (%s)",
			aName, domain.FormatNumber(a), bName, domain.FormatNumber(b)))
	}
	if hiOK && avgOK && hi < avg {
		violation("max score", hi, "average score", avg)
	}
	if hiOK && loOK && hi < lo {
		violation("max score", hi, "min score", lo)
	}
	if avgOK && loOK && avg < lo {
		violation("average score", avg, "min score", lo)
	}

	if len(issues) == 0 {
		return NoProblem
	}
	return strings.Join(issues, normalize.IssueSeparator)
}

// DecomposeRequirement classifies a subject requirement and returns the
// label plus the secondary subjects it leaves behind.
func (c *Classifier) DecomposeRequirement(v any) (label, secondary string) {
	s := strings.TrimSpace(domain.Stringify(v))
	switch {
	case s == "":
		return "", ""
	case strings.Contains(s, markUnrestricted):
		return RequirementUnrestricted, ""
	case utf8.RuneCountInString(s) == 1:
		return RequirementAll, s
	case strings.Contains(s, markAnd):
		return RequirementAll, strings.ReplaceAll(s, markAnd, "")
	case strings.Contains(s, markOr):
		return RequirementAny, strings.ReplaceAll(s, markOr, "")
	default:
		return "", ""
	}
}

// NormalizeCategory maps 物理/历史 to their class names and derives the first
// subject, which is empty for every other category.
func NormalizeCategory(v any) (category any, firstSubject string) {
	s := strings.TrimSpace(domain.Stringify(v))
	if alias, ok := categoryAliases[s]; ok {
		return alias, firstRune(alias)
	}
	if categoryClasses[s] {
		return v, firstRune(s)
	}
	return v, ""
}

func firstRune(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(r)
}

// plan records which checks a schema supports.
type plan struct {
	school, major, remark, scores, requirement, category bool
}

func planFor(columns []string) plan {
	t := domain.Table{Columns: columns}
	return plan{
		school:      t.HasColumn(domain.ColSchool),
		major:       t.HasColumn(domain.ColMajor) && t.HasColumn(domain.ColLevel),
		remark:      t.HasColumn(domain.ColMajorRemark),
		scores:      len(t.MissingColumns(domain.ColMaxScore, domain.ColAvgScore, domain.ColMinScore)) == 0,
		requirement: t.HasColumn(domain.ColRequirement),
		category:    t.HasColumn(domain.ColCategory),
	}
}

// DerivedColumns lists the columns AnnotateTable appends for a schema, in
// output order.
func DerivedColumns(columns []string) []string {
	p := planFor(columns)
	var out []string
	if p.school {
		out = append(out, domain.ColSchoolResult)
	}
	if p.major {
		out = append(out, domain.ColMajorResult)
	}
	if p.remark {
		out = append(out, domain.ColRemarkResult, domain.ColRemarkFixed)
	}
	if p.scores {
		out = append(out, domain.ColScoreResult)
	}
	if p.requirement {
		out = append(out, domain.ColRequirementLabel, domain.ColRequirementSecond)
	}
	if p.category {
		out = append(out, domain.ColFirstSubject)
	}
	return out
}

// AnnotateRow returns a copy of row carrying every derived field the
// schema supports. Checks whose input columns are absent are skipped.
func (c *Classifier) AnnotateRow(row domain.Row, columns []string) domain.Row {
	return c.annotate(row, planFor(columns))
}

func (c *Classifier) annotate(row domain.Row, p plan) domain.Row {
	out := row.Clone()
	if p.school {
		out[domain.ColSchoolResult] = c.CheckSchool(row[domain.ColSchool])
	}
	if p.major {
		out[domain.ColMajorResult] = c.CheckMajorCombo(row[domain.ColMajor], row[domain.ColLevel])
	}
	if p.remark {
		fixed, issues := "", []string(nil)
		if !row.IsMissing(domain.ColMajorRemark) {
			fixed, issues = c.normalizer.NormalizeValue(row[domain.ColMajorRemark])
		}
		out[domain.ColRemarkResult] = normalize.Report(issues)
		out[domain.ColRemarkFixed] = fixed
	}
	if p.scores {
		out[domain.ColScoreResult] = c.CheckScores(row[domain.ColMaxScore], row[domain.ColAvgScore], row[domain.ColMinScore])
	}
	if p.requirement {
		label, secondary := c.DecomposeRequirement(row[domain.ColRequirement])
		out[domain.ColRequirementLabel] = label
		out[domain.ColRequirementSecond] = secondary
	}
	if p.category {
		category, first := NormalizeCategory(row[domain.ColCategory])
		out[domain.ColCategory] = category
		out[domain.ColFirstSubject] = first
	}
	return out
}

// AnnotateTable annotates every row of t into a new table whose schema is
// t's columns followed by the derived columns.
func (c *Classifier) AnnotateTable(t *domain.Table) *domain.Table {
	p := planFor(t.Columns)
	out := domain.NewTable(t.Columns...)
	for _, col := range DerivedColumns(t.Columns) {
		out.AddColumn(col)
	}
	out.Rows = make([]domain.Row, 0, t.Len())
	for _, row := range t.Rows {
		out.Append(c.annotate(row, p))
	}
	return out
}
