package humantime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"zulu", "2024-11-20T08:15:30Z", time.Date(2024, 11, 20, 8, 15, 30, 0, time.UTC)},
		{"zulu with millis", "2024-11-20T08:15:30.123Z", time.Date(2024, 11, 20, 8, 15, 30, 123000000, time.UTC)},
		{"offset", "2024-11-20T10:15:30+02:00", time.Date(2024, 11, 20, 8, 15, 30, 0, time.UTC)},
		{"naive coerced to UTC", "2024-11-20T08:15:30", time.Date(2024, 11, 20, 8, 15, 30, 0, time.UTC)},
		{"naive with fraction", "2024-11-20T08:15:30.5", time.Date(2024, 11, 20, 8, 15, 30, 500000000, time.UTC)},
		{"date only", "2024-11-20", time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "yesterday-ish", "2024-13-40T99:00:00Z"} {
		_, err := ParseTimestamp(input)
		assert.Error(t, err, input)
	}
}

func TestParseHuman_FallsBackToStrictParse(t *testing.T) {
	got, err := ParseHuman("2024-11-20T08:15:30Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 20, 8, 15, 30, 0, time.UTC), got)
}

func TestParseHuman_RelativeExpression(t *testing.T) {
	got, err := ParseHuman("2 days ago", now)
	require.NoError(t, err)
	assert.Equal(t, "2 days ago", Since(got, now))
}
