package labeler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var reportTime = time.Date(2025, 3, 4, 9, 5, 0, 0, time.UTC)

func TestBuildReport_AllConnected(t *testing.T) {
	statuses := []LabelerStatus{
		{Name: "Bluesky Moderation", Handle: "moderation.bsky.app", DID: "did:plc:mod", Connectivity: Reachable, ServiceUpdated: "2 weeks ago"},
		{Name: "Laelaps", Handle: "laelaps.fyi", DID: "did:plc:lae", Connectivity: Reachable, ServiceUpdated: "Unknown"},
	}

	want := "# Bluesky Labeler Connectivity Report\n\n" +
		"**Total labelers checked:** 2\n" +
		"**Date:** 2025-03-04 09:05 UTC\n\n" +
		"## ✓ All Labelers Connected\n\n" +
		"All subscribed labelers are currently reachable by the AppView.\n\n" +
		"## Subscribed Labelers\n\n" +
		"- **Bluesky Moderation** (@moderation.bsky.app)\n" +
		"- **Laelaps** (@laelaps.fyi)\n"

	assert.Equal(t, want, BuildReport(statuses, reportTime))
}

func TestBuildReport_Issues(t *testing.T) {
	statuses := []LabelerStatus{
		{Name: "Up", Handle: "up.example", DID: "did:plc:up", Connectivity: Reachable, ServiceUpdated: "1 day ago"},
		{Name: "Down", Handle: "down.example", DID: "did:plc:down", Connectivity: Unreachable, ServiceUpdated: "3 months ago"},
		{Name: "Broken", Handle: "broken.example", DID: "did:plc:broken", Connectivity: ProbeError, ServiceUpdated: "Unknown"},
	}

	report := BuildReport(statuses, reportTime.In(time.FixedZone("CET", 3600)))

	assert.Contains(t, report, "**Date:** 2025-03-04 09:05 UTC\n")
	assert.Contains(t, report, "## ⚠️ Connectivity Issues\n\n")
	assert.NotContains(t, report, "All Labelers Connected")
	assert.Contains(t, report,
		"- **Down** (@down.example)\n"+
			"  - DID: `did:plc:down`\n"+
			"  - Service updated: 3 months ago\n"+
			"  - Status: Offline/unreachable\n\n")
	assert.Contains(t, report, "  - DID: `did:plc:broken`\n")
	assert.NotContains(t, report, "DID: `did:plc:up`")

	subscribed := report[strings.Index(report, "## Subscribed Labelers"):]
	assert.Equal(t, "## Subscribed Labelers\n\n- **Up** (@up.example)\n- **Down** (@down.example)\n- **Broken** (@broken.example)\n", subscribed)
}

func TestCountConnected(t *testing.T) {
	assert.Equal(t, 0, CountConnected(nil))
	assert.Equal(t, 1, CountConnected([]LabelerStatus{{Connectivity: Reachable}, {Connectivity: ProbeError}}))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("INSTR", "REPORT\n")
	assert.Equal(t, "INSTR\n\nREPORT\n\n\n"+closingInstruction, p)
	assert.True(t, strings.HasPrefix(closingInstruction, "Now research these labelers"))
}

func TestBuiltinTask(t *testing.T) {
	tk := Task()
	assert.NoError(t, tk.Validate())
	assert.Equal(t, 15, tk.MaxTurns)
	assert.Equal(t, 70, tk.Width())
	assert.Equal(t, TaskName, tk.Name)
}
