package classify

import (
	"log/slog"
	"strings"

	"admitcli/internal/workbook"
	"admitcli/pkg/contracts/domain"
)

// ReferenceSet is a read-only set of valid strings. An unavailable set
// answers every lookup with "cannot verify". Safe for concurrent reads.
type ReferenceSet struct {
	values    map[string]struct{}
	available bool
}

// NewReferenceSet builds an available set from values. Values are trimmed
// and blanks ignored.
func NewReferenceSet(values []string) *ReferenceSet {
	s := &ReferenceSet{values: make(map[string]struct{}, len(values)), available: true}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			s.values[v] = struct{}{}
		}
	}
	return s
}

// Unavailable returns a set that could not be loaded.
func Unavailable() *ReferenceSet {
	return &ReferenceSet{}
}

// Available reports whether the set was loaded.
func (s *ReferenceSet) Available() bool {
	return s != nil && s.available
}

// Contains reports membership of the trimmed value.
func (s *ReferenceSet) Contains(v string) bool {
	if !s.Available() {
		return false
	}
	_, ok := s.values[strings.TrimSpace(v)]
	return ok
}

// Len returns the number of distinct values.
func (s *ReferenceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// References bundles the reference sets used by the classifier.
type References struct {
	Schools     *ReferenceSet
	MajorCombos *ReferenceSet
}

// LoadReferences reads the school list and the major+level list. A file that
// cannot be read yields an unavailable set and a warning; it never fails.
func LoadReferences(reader *workbook.Reader, logger *slog.Logger, schoolPath, majorPath string) References {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "references"))

	return References{
		Schools:     loadSet(reader, logger, "schools", schoolPath, domain.RefSchoolColumn),
		MajorCombos: loadSet(reader, logger, "major_combos", majorPath, domain.RefMajorColumn),
	}
}

func loadSet(reader *workbook.Reader, logger *slog.Logger, name, path, column string) *ReferenceSet {
	if path == "" {
		logger.Warn("reference file not configured, checks will report cannot verify",
			slog.String("set", name))
		return Unavailable()
	}

	values, err := reader.ReadColumn(path, column)
	if err != nil {
		logger.Warn("failed to load reference set, checks will report cannot verify",
			slog.String("set", name),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return Unavailable()
	}

	set := NewReferenceSet(values)
	logger.Info("reference set loaded",
		slog.String("set", name),
		slog.String("path", path),
		slog.Int("values", set.Len()))
	return set
}
