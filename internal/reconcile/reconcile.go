// Package reconcile collapses rows sharing a composite key into one
// representative row with aggregated fields.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

// Selector returns the index, within group, of the representative row.
type Selector func(group []domain.Row) int

// MinBy selects the row with the smallest numeric value in field. Ties go to
// the earliest row; rows without a number are never chosen unless no row
// has one, in which case the first row is used.
func MinBy(field string) Selector {
	return func(group []domain.Row) int {
		best, bestVal := 0, 0.0
		found := false
		for i, r := range group {
			v, ok, err := r.Float(field)
			if err != nil || !ok {
				continue
			}
			if !found || v < bestVal {
				best, bestVal, found = i, v, true
			}
		}
		return best
	}
}

// First selects the earliest row of the group.
func First() Selector {
	return func([]domain.Row) int { return 0 }
}

// Reducer folds the numeric values of a field across a group. Non-numeric
// values are skipped before the reducer sees them.
type Reducer func(values stats.Float64Data) any

// Sum adds values; an empty group sums to 0.
func Sum(values stats.Float64Data) any {
	s, err := stats.Sum(values)
	if errors.Is(err, stats.EmptyInputErr) {
		return 0.0
	}
	return s
}

// Max returns the largest value, or nil for an empty group.
func Max(values stats.Float64Data) any {
	m, err := stats.Max(values)
	if err != nil {
		return nil
	}
	return m
}

// Aggregation writes Reducer(group values of Field) onto the representative
// row under Output, or under Field when Output is empty.
type Aggregation struct {
	Field   string
	Output  string
	Reducer Reducer
}

// Options configures Reconcile.
type Options struct {
	KeyFields []string
	// Required fields must hold a number; other rows are dropped first.
	Required     []string
	Selector     Selector
	Aggregations []Aggregation
}

// Reconcile groups t by the composite key over opts.KeyFields and returns
// one row per group, in order of each group's first appearance.
func Reconcile(t *domain.Table, opts Options) (*domain.Table, error) {
	if missing := t.MissingColumns(opts.KeyFields...); len(missing) > 0 {
		return nil, apperrors.NewGroupingError(missing)
	}
	if missing := t.MissingColumns(opts.Required...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}
	if missing := t.MissingColumns(aggregatedFields(opts.Aggregations)...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}
	selector := opts.Selector
	if selector == nil {
		selector = First()
	}

	rows := filterRequired(t.Rows, opts.Required)
	if len(rows) == 0 {
		return nil, apperrors.NewEmptyResultError(
			fmt.Sprintf("no rows left after dropping rows without %v", opts.Required)).
			WithContext("input_rows", t.Len())
	}

	var order []string
	groups := make(map[string][]domain.Row)
	for _, r := range rows {
		key := domain.CompositeKey(r, opts.KeyFields)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	out := domain.NewTable(t.Columns...)
	for _, a := range opts.Aggregations {
		out.AddColumn(outputName(a))
	}
	out.Rows = make([]domain.Row, 0, len(order))

	for _, key := range order {
		group := groups[key]
		rep := group[selector(group)].Clone()
		for _, a := range opts.Aggregations {
			rep[outputName(a)] = a.Reducer(numbers(group, a.Field))
		}
		out.Append(rep)
	}
	return out, nil
}

func aggregatedFields(aggs []Aggregation) []string {
	fields := make([]string, 0, len(aggs))
	for _, a := range aggs {
		fields = append(fields, a.Field)
	}
	return fields
}

func outputName(a Aggregation) string {
	if a.Output != "" {
		return a.Output
	}
	return a.Field
}

func filterRequired(rows []domain.Row, required []string) []domain.Row {
	if len(required) == 0 {
		return rows
	}
	kept := make([]domain.Row, 0, len(rows))
	for _, r := range rows {
		if hasNumbers(r, required) {
			kept = append(kept, r)
		}
	}
	return kept
}

func hasNumbers(r domain.Row, fields []string) bool {
	for _, f := range fields {
		if _, ok, err := r.Float(f); err != nil || !ok {
			return false
		}
	}
	return true
}

func numbers(group []domain.Row, field string) stats.Float64Data {
	values := make(stats.Float64Data, 0, len(group))
	for _, r := range group {
		if v, ok, err := r.Float(field); err == nil && ok {
			values = append(values, v)
		}
	}
	return values
}
