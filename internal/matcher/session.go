package matcher

import (
	"strings"

	"github.com/google/uuid"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

// Session walks a reviewer through ambiguous records. It is a value: every
// transition returns a new Session and leaves the receiver unchanged.
type Session struct {
	id        string
	codeField string
	pending   []AmbiguousRecord
	choices   map[int]string
	cursor    int
}

// NewSession starts a review of res.Ambiguous writing into codeField.
func NewSession(res *Result, codeField string) Session {
	return Session{
		id:        uuid.New().String(),
		codeField: codeField,
		pending:   append([]AmbiguousRecord(nil), res.Ambiguous...),
		choices:   map[int]string{},
	}
}

// ID identifies the session.
func (s Session) ID() string { return s.id }

// Len returns the number of records under review.
func (s Session) Len() int { return len(s.pending) }

// Cursor returns the position of the current record.
func (s Session) Cursor() int { return s.cursor }

// Current returns the record under the cursor. ok is false when nothing is
// pending.
func (s Session) Current() (rec AmbiguousRecord, ok bool) {
	if len(s.pending) == 0 {
		return AmbiguousRecord{}, false
	}
	return s.pending[s.cursor], true
}

// Choice returns the code chosen for the record at position i.
func (s Session) Choice(i int) (string, bool) {
	c, ok := s.choices[i]
	return c, ok
}

// Chosen counts records with a choice.
func (s Session) Chosen() int { return len(s.choices) }

// Advance moves the cursor forward, stopping at the last record.
func (s Session) Advance() Session {
	if s.cursor < len(s.pending)-1 {
		s.cursor++
	}
	return s
}

// Back moves the cursor backward, stopping at the first record.
func (s Session) Back() Session {
	if s.cursor > 0 {
		s.cursor--
	}
	return s
}

// Select records code for the current record.
func (s Session) Select(code string) (Session, error) {
	return s.SelectAt(s.cursor, code)
}

// SelectAt records code for the record at position i. A blank code clears
// the choice. Codes need not be among the candidates.
func (s Session) SelectAt(i int, code string) (Session, error) {
	if i < 0 || i >= len(s.pending) {
		return s, apperrors.NewAppValidationError("record position out of range").
			WithContext("position", i).
			WithContext("pending", len(s.pending))
	}
	choices := make(map[int]string, len(s.choices)+1)
	for k, v := range s.choices {
		choices[k] = v
	}
	if code = strings.TrimSpace(code); code == "" {
		delete(choices, i)
	} else {
		choices[i] = code
	}
	s.choices = choices
	return s, nil
}

// Apply returns a copy of t with every chosen code written to the row the
// record came from. Records without a choice keep their current value.
func (s Session) Apply(t *domain.Table) *domain.Table {
	out := t.Clone()
	out.AddColumn(s.codeField)
	for i, rec := range s.pending {
		code, ok := s.choices[i]
		if !ok || rec.Index < 0 || rec.Index >= out.Len() {
			continue
		}
		out.Rows[rec.Index][s.codeField] = code
	}
	return out
}
