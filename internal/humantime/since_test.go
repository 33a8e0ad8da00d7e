package humantime

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func ago(seconds int64) time.Time {
	return now.Add(-time.Duration(seconds) * time.Second)
}

func TestSince_Thresholds(t *testing.T) {
	tests := []struct {
		elapsed int64
		want    string
	}{
		{0, "0 seconds ago"},
		{1, "1 second ago"},
		{2, "2 seconds ago"},
		{59, "59 seconds ago"},
		{60, "1 minute ago"},
		{119, "1 minute ago"},
		{120, "2 minutes ago"},
		{3599, "59 minutes ago"},
		{3600, "1 hour ago"},
		{7199, "1 hour ago"},
		{86399, "23 hours ago"},
		{86400, "1 day ago"},
		{604799, "6 days ago"},
		{604800, "1 week ago"},
		{2591999, "4 weeks ago"},
		{2592000, "1 month ago"},
		{31535999, "12 months ago"},
		{31536000, "1 year ago"},
		{3 * 31536000, "3 years ago"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%ds", tt.elapsed), func(t *testing.T) {
			assert.Equal(t, tt.want, Since(ago(tt.elapsed), now))
		})
	}
}

func TestSince_SecondsRange(t *testing.T) {
	for d := int64(0); d < 60; d++ {
		want := fmt.Sprintf("%d seconds ago", d)
		if d == 1 {
			want = "1 second ago"
		}
		assert.Equal(t, want, Since(ago(d), now))
	}
}

func TestSince_TruncatesFractions(t *testing.T) {
	// 1.9 seconds still counts as one second.
	assert.Equal(t, "1 second ago", Since(now.Add(-1900*time.Millisecond), now))
	// 59.99 minutes is still minutes.
	assert.Equal(t, "59 minutes ago", Since(now.Add(-(time.Hour - time.Millisecond)), now))
}

func TestSince_FutureClampsToZero(t *testing.T) {
	assert.Equal(t, "0 seconds ago", Since(now.Add(time.Hour), now))
}

func TestSince_ZoneIndependent(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*3600)
	assert.Equal(t, "1 hour ago", Since(ago(3600).In(berlin), now))
}

func TestAgo_UsesWallClock(t *testing.T) {
	assert.Equal(t, "5 minutes ago", Ago(time.Now().Add(-5*time.Minute-time.Second)))
}
