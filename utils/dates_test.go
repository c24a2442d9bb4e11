package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelativeDayLabel(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)

	cases := map[string]struct {
		t        time.Time
		expected string
	}{
		"same day later": {now.Add(5 * time.Hour), "Today"},
		"next morning":   {time.Date(2026, 5, 11, 8, 0, 0, 0, time.UTC), "Tomorrow"},
		"previous day":   {time.Date(2026, 5, 9, 23, 0, 0, 0, time.UTC), "Yesterday"},
		"three days out": {now.AddDate(0, 0, 3), "3 days"},
		"four days ago":  {now.AddDate(0, 0, -4), "4 days ago"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, RelativeDayLabel(now, tc.t))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-03", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-02-03T10:00:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	_, err = ParseDate("03/02/2026", time.UTC)
	assert.Error(t, err)
}
