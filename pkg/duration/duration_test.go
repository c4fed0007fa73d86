package duration

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse tests unit conversion and rejection of malformed specs
func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		expected int64
		wantErr  bool
	}{
		{name: "seconds", spec: "45s", expected: 45},
		{name: "minutes", spec: "30m", expected: 1800},
		{name: "hours", spec: "12h", expected: 43200},
		{name: "days", spec: "2d", expected: 172800},
		{name: "weeks", spec: "1w", expected: 604800},
		{name: "uppercase unit", spec: "1H", expected: 3600},
		{name: "surrounding whitespace", spec: " 5m ", expected: 300},
		{name: "unknown unit", spec: "90x", wantErr: true},
		{name: "missing unit", spec: "90", wantErr: true},
		{name: "missing magnitude", spec: "h", wantErr: true},
		{name: "empty", spec: "", wantErr: true},
		{name: "fractional magnitude", spec: "1.5h", wantErr: true},
		{name: "zero", spec: "0h", wantErr: true},
		{name: "negative", spec: "-1h", wantErr: true},
		{name: "overflow", spec: "99999999999999w", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seconds, err := Parse(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				var durErr *InvalidDurationError
				assert.True(t, errors.As(err, &durErr))
				assert.Equal(t, tt.spec, durErr.Spec)
				assert.ErrorIs(t, err, ErrInvalidDuration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, seconds)
		})
	}
}

// TestParseDuration tests the time.Duration wrapper
func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("2h")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, d)

	_, err = ParseDuration("2y")
	assert.ErrorIs(t, err, ErrInvalidDuration)
}
