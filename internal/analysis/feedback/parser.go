package feedback

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MinScore = 1
	MaxScore = 10
)

var (
	scorePattern    = regexp.MustCompile(`(?i)overall\s+score\s*[:：]\s*\**\s*(\d{1,2})(?:\s*/\s*10)?`)
	feedbackPattern = regexp.MustCompile(`(?is)(?:^|\n)\s*\**feedback\**\s*[:：]\**\s*(.*)$`)
)

// Report is what could be recognized in the evaluator text.
type Report struct {
	Score   *int
	Summary string
}

// HasScore reports whether an in-range score was found.
func (r Report) HasScore() bool {
	return r.Score != nil
}

// Parse extracts "Overall Score: N" and the "Feedback:" body. Scores outside
// 1..10 are dropped; a missing section leaves the field empty.
func Parse(raw string) Report {
	var report Report

	if m := scorePattern.FindStringSubmatch(raw); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= MinScore && n <= MaxScore {
			report.Score = &n
		}
	}

	if m := feedbackPattern.FindStringSubmatch(raw); m != nil {
		report.Summary = strings.TrimSpace(m[1])
	}

	return report
}

// WellFormed reports whether raw follows the requested
// "Overall Score: …" / "Feedback: …" layout, score first.
func WellFormed(raw string) bool {
	scoreLoc := scorePattern.FindStringIndex(raw)
	feedbackLoc := feedbackPattern.FindStringIndex(raw)
	if scoreLoc == nil || feedbackLoc == nil {
		return false
	}
	return scoreLoc[0] < feedbackLoc[0]
}
