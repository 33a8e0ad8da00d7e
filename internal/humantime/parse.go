package humantime

import (
	"fmt"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// naiveLayouts are ISO 8601 layouts without zone information. Values in
// these layouts are interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an RFC 3339 timestamp ("2024-05-01T12:00:00.000Z",
// "2024-05-01T14:00:00+02:00") and normalizes it to UTC. Timestamps without
// a zone are coerced to UTC rather than the local zone.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid timestamp %q: expected RFC 3339", s)
}

// ParseHuman accepts everything ParseTimestamp does plus human-readable
// dates such as "2 weeks ago" or "March 3 2025". Relative expressions are
// resolved against now; dates without a zone are taken as UTC.
func ParseHuman(s string, now time.Time) (time.Time, error) {
	if t, err := ParseTimestamp(s); err == nil {
		return t, nil
	}

	parser := dps.Parser{}
	cfg := &dps.Configuration{
		CurrentTime:         now.UTC(),
		DefaultTimezone:     time.UTC,
		PreferredDateSource: dps.Past,
	}

	parsed, err := parser.Parse(cfg, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse %q as a date: %w", s, err)
	}
	if parsed.IsZero() {
		return time.Time{}, fmt.Errorf("could not parse %q as a date", s)
	}
	return parsed.Time.UTC(), nil
}
