// Package matcher fills a code column in a primary table from a lookup table
// joined on a composite key, and collects the rows whose key is ambiguous so
// they can be resolved by hand.
package matcher

import (
	"log/slog"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

// PlanRename maps admissions-plan export headers onto the score template
// vocabulary.
var PlanRename = map[string]string{
	"学校":   domain.ColSchool,
	"省份":   domain.ColProvince,
	"层次":   domain.ColLevel,
	"科类":   domain.ColCategory,
	"批次":   domain.ColBatch,
	"招生类型": domain.ColRecruitTypeOpt,
	"专业":   domain.ColMajor,
	"备注":   domain.ColMajorRemarkOpt,
}

// PlanKeyFields identify a major in both the score template and the plan.
var PlanKeyFields = []string{
	domain.ColSchool, domain.ColProvince, domain.ColMajor, domain.ColMajorRemarkOpt,
	domain.ColLevel, domain.ColCategory, domain.ColBatch, domain.ColRecruitTypeOpt,
}

// Options configures Match.
type Options struct {
	// KeyFields form the join key. RemarkField is excluded from it even when
	// listed.
	KeyFields   []string
	RemarkField string
	// Rename is applied to a copy of the lookup table before keying.
	Rename map[string]string
	// CodeField is read from the lookup and written to the primary.
	CodeField string
	// CandidateFields are copied from lookup rows into ambiguous candidates.
	// Empty means KeyFields plus RemarkField.
	CandidateFields []string
}

// PlanOptions joins a score template with a plan export on group code.
func PlanOptions() Options {
	return Options{
		KeyFields:   PlanKeyFields,
		RemarkField: domain.ColMajorRemarkOpt,
		Rename:      PlanRename,
		CodeField:   domain.ColGroupCode,
	}
}

// Candidate is one lookup row sharing an ambiguous key.
type Candidate struct {
	Code   string     `json:"code"`
	Fields domain.Row `json:"fields"`
}

// AmbiguousRecord is a primary row that could not be assigned automatically.
type AmbiguousRecord struct {
	Index      int         `json:"index"`
	Key        string      `json:"key"`
	Fields     domain.Row  `json:"fields"`
	Candidates []Candidate `json:"candidates"`
}

// Codes returns the distinct non-blank candidate codes in first-seen order.
func (a AmbiguousRecord) Codes() []string {
	seen := make(map[string]bool, len(a.Candidates))
	var codes []string
	for _, c := range a.Candidates {
		if c.Code == "" || seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		codes = append(codes, c.Code)
	}
	return codes
}

// Result is the outcome of Match.
type Result struct {
	Table     *domain.Table     `json:"table"`
	Ambiguous []AmbiguousRecord `json:"ambiguous"`
	// Assigned counts rows that received a code automatically.
	Assigned int `json:"assigned"`
	// Unmatched counts rows with no candidate at all.
	Unmatched int `json:"unmatched"`
}

// Matcher runs Match with logging.
type Matcher struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Matcher for opts.
func New(opts Options, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{opts: opts, logger: logger.With(slog.String("component", "matcher"))}
}

// Match joins primary against lookup.
func (m *Matcher) Match(primary, lookup *domain.Table) (*Result, error) {
	res, err := Match(primary, lookup, m.opts)
	if err != nil {
		m.logger.Warn("match failed", slog.String("error", err.Error()))
		return nil, err
	}
	m.logger.Info("match completed",
		slog.Int("rows", res.Table.Len()),
		slog.Int("assigned", res.Assigned),
		slog.Int("ambiguous", len(res.Ambiguous)),
		slog.Int("unmatched", res.Unmatched))
	return res, nil
}

// Match copies primary and writes opts.CodeField on every row: the code of
// the single lookup row with the same key, or "" when the key has no
// candidate or occurs more than once in either table. Duplicated keys with
// candidates are reported as ambiguous. Neither input is modified.
func Match(primary, lookup *domain.Table, opts Options) (*Result, error) {
	keys := keyFields(opts)

	lk := lookup.Clone()
	for from, to := range opts.Rename {
		if lk.HasColumn(from) && !lk.HasColumn(to) {
			lk.RenameColumn(from, to)
		}
	}

	if missing := primary.MissingColumns(keys...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing).WithContext("table", "primary")
	}
	if missing := lk.MissingColumns(append(keys, opts.CodeField)...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing).WithContext("table", "lookup")
	}

	primaryDups := domain.DuplicateKeys(primary.Rows, keys)
	lookupDups := domain.DuplicateKeys(lk.Rows, keys)
	byKey := make(map[string][]domain.Row)
	for _, r := range lk.Rows {
		k := domain.CompositeKey(r, keys)
		byKey[k] = append(byKey[k], r)
	}

	display := opts.CandidateFields
	if len(display) == 0 {
		display = append([]string(nil), keys...)
		if opts.RemarkField != "" {
			display = append(display, opts.RemarkField)
		}
	}

	out := primary.Clone()
	out.AddColumn(opts.CodeField)
	res := &Result{Table: out}

	for i, r := range out.Rows {
		k := domain.CompositeKey(r, keys)
		candidates := byKey[k]
		r[opts.CodeField] = ""

		switch {
		case len(candidates) == 0:
			res.Unmatched++
		case primaryDups[k] || lookupDups[k]:
			res.Ambiguous = append(res.Ambiguous, AmbiguousRecord{
				Index:      i,
				Key:        k,
				Fields:     r.Clone(),
				Candidates: toCandidates(candidates, opts.CodeField, display),
			})
		default:
			r[opts.CodeField] = candidates[0].Text(opts.CodeField)
			res.Assigned++
		}
	}
	return res, nil
}

func keyFields(opts Options) []string {
	keys := make([]string, 0, len(opts.KeyFields))
	for _, f := range opts.KeyFields {
		if f != opts.RemarkField {
			keys = append(keys, f)
		}
	}
	return keys
}

func toCandidates(rows []domain.Row, codeField string, display []string) []Candidate {
	out := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		fields := make(domain.Row, len(display))
		for _, f := range display {
			fields[f] = r[f]
		}
		out = append(out, Candidate{Code: r.Text(codeField), Fields: fields})
	}
	return out
}
