package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "admitcli/internal/errors"
	"admitcli/pkg/contracts/domain"
)

func TestSession_Navigation(t *testing.T) {
	primary, lookup := tables()
	res, err := Match(primary, lookup, PlanOptions())
	require.NoError(t, err)

	s := NewSession(res, domain.ColGroupCode)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 2, s.Len())

	rec, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 2, rec.Index)

	s = s.Back()
	assert.Equal(t, 0, s.Cursor())

	next := s.Advance().Advance()
	assert.Equal(t, 1, next.Cursor())
	assert.Equal(t, 0, s.Cursor(), "transitions leave the receiver unchanged")
}

func TestSession_SelectAndApply(t *testing.T) {
	primary, lookup := tables()
	res, err := Match(primary, lookup, PlanOptions())
	require.NoError(t, err)

	s := NewSession(res, domain.ColGroupCode)

	s1, err := s.Select("003")
	require.NoError(t, err)
	s2, err := s1.Select("004")
	require.NoError(t, err)
	s3, err := s2.Advance().Select(" 099 ")
	require.NoError(t, err)

	assert.Equal(t, 0, s.Chosen())
	code, _ := s1.Choice(0)
	assert.Equal(t, "003", code)
	code, _ = s3.Choice(0)
	assert.Equal(t, "004", code)

	out := s3.Apply(res.Table)
	assert.Equal(t, "004", out.Rows[2][domain.ColGroupCode])
	assert.Equal(t, "099", out.Rows[3][domain.ColGroupCode])
	assert.Equal(t, "001", out.Rows[0][domain.ColGroupCode])
	assert.Equal(t, "", res.Table.Rows[2][domain.ColGroupCode])

	again, err := s3.SelectAt(0, "004")
	require.NoError(t, err)
	assert.Equal(t, out.Rows, again.Apply(res.Table).Rows)
}

func TestSession_ClearAndRange(t *testing.T) {
	primary, lookup := tables()
	res, err := Match(primary, lookup, PlanOptions())
	require.NoError(t, err)

	s, err := NewSession(res, domain.ColGroupCode).SelectAt(1, "005")
	require.NoError(t, err)
	s, err = s.SelectAt(1, "  ")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Chosen())

	_, err = s.SelectAt(5, "001")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestSession_Empty(t *testing.T) {
	s := NewSession(&Result{}, domain.ColGroupCode)
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, s.Advance().Cursor())

	_, err := s.Select("001")
	assert.Error(t, err)
}
