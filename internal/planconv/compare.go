package planconv

import (
	"admitcli/pkg/contracts/domain"
)

// Comparison reports whether one plan row has a counterpart in a score sheet.
type Comparison struct {
	Index  int        `json:"index"`
	Key    string     `json:"key"`
	Exists bool       `json:"exists"`
	Fields domain.Row `json:"fields"`
}

// ComparisonSummary counts comparison outcomes.
type ComparisonSummary struct {
	Total   int `json:"total"`
	Found   int `json:"found"`
	Missing int `json:"missing"`
}

// Summarize counts results.
func Summarize(results []Comparison) ComparisonSummary {
	s := ComparisonSummary{Total: len(results)}
	for _, r := range results {
		if r.Exists {
			s.Found++
		}
	}
	s.Missing = s.Total - s.Found
	return s
}

// CompareMajorScores checks every plan row against a major score sheet.
func CompareMajorScores(plan, scores *domain.Table) []Comparison {
	return compare(plan, scores, MajorKeyFields)
}

// CompareCollegeScores checks every plan row against a college score sheet.
func CompareCollegeScores(plan, scores *domain.Table) []Comparison {
	return compare(plan, scores, CollegeKeyFields)
}

// compare keys both tables on fields. Score sheets may use template headers
// for the same fields. A field absent from either table, such as the year
// that templates keep above the header, is left out of the key.
func compare(plan, scores *domain.Table, fields []string) []Comparison {
	var planCols, scoreCols []string
	for _, f := range fields {
		sc := resolve(scores, f)
		if !plan.HasColumn(f) || sc == "" {
			continue
		}
		planCols = append(planCols, f)
		scoreCols = append(scoreCols, sc)
	}

	index := make(map[string]bool, scores.Len())
	for _, r := range scores.Rows {
		index[scoreKey(r, scoreCols)] = true
	}

	results := make([]Comparison, 0, plan.Len())
	for i, r := range plan.Rows {
		key := scoreKey(r, planCols)
		fields := make(domain.Row, len(plan.Columns))
		for _, c := range plan.Columns {
			fields[c] = r[c]
		}
		results = append(results, Comparison{
			Index:  i,
			Key:    key,
			Exists: index[key],
			Fields: fields,
		})
	}
	return results
}

// scoreKey is a composite key over code-normalized values so that "^001"
// and "001" compare equal.
func scoreKey(r domain.Row, cols []string) string {
	norm := make(domain.Row, len(cols))
	for _, c := range cols {
		norm[c] = ToText(r[c])
	}
	return domain.CompositeKey(norm, cols)
}

func resolve(t *domain.Table, field string) string {
	if t.HasColumn(field) {
		return field
	}
	for _, alias := range scoreAliases[field] {
		if t.HasColumn(alias) {
			return alias
		}
	}
	return ""
}
