package labeler

import (
	"fmt"
	"strings"
	"time"
)

// LabelerStatus is the checked state of one subscribed labeler.
type LabelerStatus struct {
	Name         string
	Handle       string
	DID          string
	Connectivity Connectivity
	// ServiceUpdated is a relative label such as "3 weeks ago", or "Unknown".
	ServiceUpdated string
}

// Connected reports whether the labeler was reachable.
func (s LabelerStatus) Connected() bool {
	return s.Connectivity == Reachable
}

// CountConnected returns how many statuses are reachable.
func CountConnected(statuses []LabelerStatus) int {
	n := 0
	for _, s := range statuses {
		if s.Connected() {
			n++
		}
	}
	return n
}

// BuildReport renders the markdown connectivity report that is handed to
// the research agent.
func BuildReport(statuses []LabelerStatus, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Bluesky Labeler Connectivity Report\n\n")
	fmt.Fprintf(&b, "**Total labelers checked:** %d\n", len(statuses))
	fmt.Fprintf(&b, "**Date:** %s\n\n", now.UTC().Format("2006-01-02 15:04 UTC"))

	var issues []LabelerStatus
	for _, s := range statuses {
		if !s.Connected() {
			issues = append(issues, s)
		}
	}

	if len(issues) > 0 {
		b.WriteString("## ⚠️ Connectivity Issues\n\n")
		for _, s := range issues {
			fmt.Fprintf(&b, "- **%s** (@%s)\n", s.Name, s.Handle)
			fmt.Fprintf(&b, "  - DID: `%s`\n", s.DID)
			fmt.Fprintf(&b, "  - Service updated: %s\n", s.ServiceUpdated)
			b.WriteString("  - Status: Offline/unreachable\n\n")
		}
	} else {
		b.WriteString("## ✓ All Labelers Connected\n\n")
		b.WriteString("All subscribed labelers are currently reachable by the AppView.\n\n")
	}

	b.WriteString("## Subscribed Labelers\n\n")
	for _, s := range statuses {
		fmt.Fprintf(&b, "- **%s** (@%s)\n", s.Name, s.Handle)
	}
	return b.String()
}
