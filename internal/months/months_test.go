package months

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexOf(t *testing.T) {
	idx, err := IndexOf("January")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = IndexOf("December")
	require.NoError(t, err)
	assert.Equal(t, 11, idx)
}

func TestIndexOfUnknown(t *testing.T) {
	_, err := IndexOf("Smarch")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMonth))

	var unknown *UnknownMonthError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Smarch", unknown.Name)

	// labels are matched exactly
	_, err = IndexOf("january")
	assert.ErrorIs(t, err, ErrUnknownMonth)
}

func TestNextNamesWrapAround(t *testing.T) {
	next, err := NextNames("November", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"December", "January", "February"}, next)

	next, err = NextNames("December", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"January"}, next)
}

func TestNextNamesFullYear(t *testing.T) {
	next, err := NextNames("March", 13)
	require.NoError(t, err)
	require.Len(t, next, 13)
	assert.Equal(t, "April", next[0])
	assert.Equal(t, "March", next[11])
	assert.Equal(t, "April", next[12])
}

func TestNextNamesZero(t *testing.T) {
	next, err := NextNames("May", 0)
	require.NoError(t, err)
	assert.NotNil(t, next)
	assert.Empty(t, next)
}

func TestNextNamesErrors(t *testing.T) {
	_, err := NextNames("May", -1)
	assert.ErrorIs(t, err, ErrNegativeCount)

	_, err = NextNames("Nope", 2)
	assert.ErrorIs(t, err, ErrUnknownMonth)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("July"))
	assert.False(t, Valid(""))
}
