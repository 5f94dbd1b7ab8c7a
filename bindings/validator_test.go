package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimMemory(t *testing.T) {
	cases := []struct {
		name       string
		start, end int64
		want       error
	}{
		{"Ok", 0, 16, nil},
		{"Empty", 8, 8, nil},
		{"Inverted", 16, 8, ErrInvalidRange},
		{"PastEnd", 0, 72, ErrOutOfBounds},
		{"MisalignedStart", 4, 16, ErrMisalignedAccess},
		{"MisalignedEnd", 0, 12, ErrMisalignedAccess},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := NewValidator(64, 0).ClaimMemory(c.start, c.end)
			if c.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, c.want)

			var derr *DeserializationError
			require.ErrorAs(t, err, &derr)
		})
	}
}

func TestClaimMemoryMonotonic(t *testing.T) {
	v := NewValidator(64, 0)
	require.NoError(t, v.ClaimMemory(0, 24))

	for _, start := range []int64{0, 8, 16} {
		assert.ErrorIs(t, v.ClaimMemory(start, 32), ErrOutOfOrderAccess)
	}
	// failed claims leave the counter alone
	require.NoError(t, v.ClaimMemory(24, 32))
	assert.ErrorIs(t, v.ClaimMemory(40, 128), ErrOutOfBounds)
	require.NoError(t, v.ClaimMemory(40, 64))
}

func TestClaimHandle(t *testing.T) {
	v := NewValidator(0, 4)
	require.NoError(t, v.ClaimHandle(0))
	require.NoError(t, v.ClaimHandle(2))
	assert.ErrorIs(t, v.ClaimHandle(2), ErrOutOfOrderAccess)
	assert.ErrorIs(t, v.ClaimHandle(1), ErrOutOfOrderAccess)
	assert.ErrorIs(t, v.ClaimHandle(4), ErrIllegalHandle)
	require.NoError(t, v.ClaimHandle(3))
}
