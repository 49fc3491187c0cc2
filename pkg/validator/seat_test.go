package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatValidate(t *testing.T) {
	validator := NewSeatValidator()

	t.Run("normalizes and keeps order", func(t *testing.T) {
		seats, err := validator.Validate([]string{" a3", "A1", "b12", "7"})
		require.NoError(t, err)
		assert.Equal(t, []string{"A3", "A1", "B12", "7"}, seats)
	})

	t.Run("accepts common layouts", func(t *testing.T) {
		seats, err := validator.Validate([]string{"1a", "12B", "a-1", "upper 4", "window"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1A", "12B", "A-1", "UPPER 4", "WINDOW"}, seats)
	})

	cases := []struct {
		name        string
		input       []string
		expectedErr error
	}{
		{"nil slice", nil, ErrNoSeats},
		{"empty slice", []string{}, ErrNoSeats},
		{"blank label", []string{"A1", ""}, ErrInvalidSeatLabel},
		{"leading separator", []string{"-A1"}, ErrInvalidSeatLabel},
		{"unsupported character", []string{"A1,A2"}, ErrInvalidSeatLabel},
		{"too long", []string{"SEAT-NUMBER-00001"}, ErrInvalidSeatLabel},
		{"duplicate after normalizing", []string{"a1", "A1"}, ErrDuplicateSeat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}
