// Package humantime renders coarse "time since" labels and parses the
// timestamps they are computed from.
package humantime

import (
	"fmt"
	"time"
)

type unit struct {
	below   int64 // exclusive upper bound in elapsed seconds
	name    string
	divisor int64
}

// units is ordered by threshold; the first unit whose bound exceeds the
// elapsed seconds wins. A month is 30 days and a year 365 days.
var units = []unit{
	{below: 60, name: "second", divisor: 1},
	{below: 3600, name: "minute", divisor: 60},
	{below: 86400, name: "hour", divisor: 3600},
	{below: 604800, name: "day", divisor: 86400},
	{below: 2592000, name: "week", divisor: 604800},
	{below: 31536000, name: "month", divisor: 2592000},
}

var year = unit{name: "year", divisor: 31536000}

// Since describes how long before now t happened, e.g. "3 weeks ago".
// Counts are truncated, never rounded. A t after now yields "0 seconds ago".
func Since(t, now time.Time) string {
	elapsed := int64(now.Sub(t) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	u := year
	for _, candidate := range units {
		if elapsed < candidate.below {
			u = candidate
			break
		}
	}

	count := elapsed / u.divisor
	suffix := "s"
	if count == 1 {
		suffix = ""
	}
	return fmt.Sprintf("%d %s%s ago", count, u.name, suffix)
}

// Ago is Since relative to the current wall clock.
func Ago(t time.Time) string {
	return Since(t, time.Now())
}
