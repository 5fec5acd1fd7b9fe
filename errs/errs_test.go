package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseError_Wraps(t *testing.T) {
	err := NewParseError(12, "unexpected token %q", "(")
	require.ErrorIs(t, err, ErrParse)
	require.Contains(t, err.Error(), "position 12")
	require.Contains(t, err.Error(), `"("`)
}

func TestUnknownTypeError_Wraps(t *testing.T) {
	err := NewUnknownTypeError("Fooo")
	require.ErrorIs(t, err, ErrUnknownType)
	require.Contains(t, err.Error(), "Fooo")
}

func TestUnknownBinaryTypeIndexError_Wraps(t *testing.T) {
	err := NewUnknownBinaryTypeIndexError(0xEE)
	require.ErrorIs(t, err, ErrUnknownBinaryTypeIndex)
	require.Contains(t, err.Error(), "0xEE")
}

func TestInvalidDiscriminantError_Wraps(t *testing.T) {
	err := NewInvalidDiscriminantError("Variant", 9, 3)
	require.ErrorIs(t, err, ErrInvalidDiscriminant)
	require.Contains(t, err.Error(), "Variant")
	require.Contains(t, err.Error(), "9")
}

func TestUnsupportedAggregateError_Wraps(t *testing.T) {
	err := NewUnsupportedAggregateError("median")
	require.ErrorIs(t, err, ErrUnsupportedAggregate)
	require.Contains(t, err.Error(), "median")
}

func TestSentinels_DistinctFromEachOther(t *testing.T) {
	require.False(t, errors.Is(ErrUnexpectedEnd, ErrParse))
	require.False(t, errors.Is(ErrUnknownType, ErrUnknownBinaryTypeIndex))
}
