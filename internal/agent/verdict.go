package agent

import "strings"

// Verdict is the outcome a research task signals through its output.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictAlert
	VerdictSilent
)

func (v Verdict) String() string {
	switch v {
	case VerdictAlert:
		return "alert"
	case VerdictSilent:
		return "silent"
	default:
		return "unknown"
	}
}

const (
	alertMarker  = "ALERT:"
	silentMarker = "SILENT"
)

// DetectVerdict scans agent output for the sentinel line. Any line starting
// with "ALERT:" wins over "SILENT" lines regardless of order. Markdown
// emphasis, heading and quote markers in front of the sentinel are ignored.
// The matching line is returned with those markers removed.
func DetectVerdict(text string) (Verdict, string) {
	silentLine := ""
	for _, raw := range strings.Split(text, "\n") {
		line := stripMarkup(raw)
		if strings.HasPrefix(line, alertMarker) {
			return VerdictAlert, line
		}
		if silentLine == "" && strings.HasPrefix(line, silentMarker) {
			silentLine = line
		}
	}
	if silentLine != "" {
		return VerdictSilent, silentLine
	}
	return VerdictUnknown, ""
}

func stripMarkup(line string) string {
	return strings.TrimLeft(strings.TrimSpace(line), "#*_>` ")
}
