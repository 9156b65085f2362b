package feedback

import "testing"

func TestParseWellFormed(t *testing.T) {
	raw := "Overall Score: 7\nFeedback: Clear answers, but go deeper on SQL tuning."
	report := Parse(raw)

	if !report.HasScore() || *report.Score != 7 {
		t.Fatalf("expected score 7, got %v", report.Score)
	}
	if report.Summary != "Clear answers, but go deeper on SQL tuning." {
		t.Fatalf("unexpected summary: %q", report.Summary)
	}
	if !WellFormed(raw) {
		t.Fatal("expected well-formed report")
	}
}

func TestParseOutOfTenAndMarkdown(t *testing.T) {
	report := Parse("**Overall Score:** 9/10\n\n**Feedback:** Great.")
	if !report.HasScore() || *report.Score != 9 {
		t.Fatalf("expected score 9, got %v", report.Score)
	}
	if report.Summary != "Great." {
		t.Fatalf("unexpected summary: %q", report.Summary)
	}
}

func TestParseRejectsOutOfRangeScore(t *testing.T) {
	report := Parse("Overall Score: 42\nFeedback: ?")
	if report.HasScore() {
		t.Fatalf("expected no score, got %d", *report.Score)
	}
}

func TestParseMissingSections(t *testing.T) {
	report := Parse("The candidate did fine.")
	if report.HasScore() || report.Summary != "" {
		t.Fatalf("expected empty report, got %+v", report)
	}
	if WellFormed("Feedback: first\nOverall Score: 3") {
		t.Fatal("expected score-after-feedback to be rejected")
	}
}
