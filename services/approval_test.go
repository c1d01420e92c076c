package services

import (
	"strings"
	"testing"
	"time"

	"task-reward-system/models"
)

func newGateForTest() *AutoApprovalService {
	return NewAutoApprovalService(models.DefaultApprovalRules)
}

func TestEvaluateNoRuleForTaskType(t *testing.T) {
	gate := newGateForTest()
	now := time.Now()

	eval := gate.Evaluate(EvaluationInput{EvidenceText: "plenty of evidence here", SubmittedAt: now}, "mystery_type", now)

	if eval.CanApprove {
		t.Fatal("unknown task type must not auto-approve")
	}
	if eval.QualityScore != 0 {
		t.Fatalf("failed evaluation must carry quality 0, got %d", eval.QualityScore)
	}
	if len(eval.Reasons) != 1 {
		t.Fatalf("expected a single reason, got %v", eval.Reasons)
	}
}

func TestEvaluateAutoApproveDisabled(t *testing.T) {
	gate := newGateForTest()
	now := time.Now()

	eval := gate.Evaluate(EvaluationInput{
		EvidenceText: strings.Repeat("detailed writeup ", 20),
		SubmittedAt:  now,
	}, "content_creation", now)

	if eval.CanApprove {
		t.Fatal("content_creation is manual-review only")
	}
	if eval.QualityScore != 0 {
		t.Fatalf("expected quality 0, got %d", eval.QualityScore)
	}
}

func TestEvaluateEvidenceTooShortShortCircuits(t *testing.T) {
	gate := newGateForTest()
	now := time.Now()

	// "link" is a required keyword for social_share, but the length check
	// comes first and must win.
	eval := gate.Evaluate(EvaluationInput{EvidenceText: "link", SubmittedAt: now}, "social_share", now)

	if eval.CanApprove {
		t.Fatal("short evidence must fail")
	}
	if eval.QualityScore != 0 {
		t.Fatalf("expected quality 0 on short-circuit, got %d", eval.QualityScore)
	}
	if len(eval.Reasons) != 1 || !strings.Contains(eval.Reasons[0], "too short") {
		t.Fatalf("expected only the length reason, got %v", eval.Reasons)
	}
}

func TestEvaluateNoKeywordsMatched(t *testing.T) {
	gate := newGateForTest()
	now := time.Now()

	eval := gate.Evaluate(EvaluationInput{
		EvidenceText: "here is my proof of completing the thing",
		SubmittedAt:  now,
	}, "social_share", now)

	if eval.CanApprove {
		t.Fatal("zero keyword matches must fail")
	}
	if len(eval.Reasons) != 1 || !strings.Contains(eval.Reasons[0], "keywords") {
		t.Fatalf("expected the keyword reason, got %v", eval.Reasons)
	}
}

func TestEvaluatePartialKeywordCoverageDiscountsQuality(t *testing.T) {
	gate := newGateForTest()
	now := time.Now()

	// app_review: 4 keywords, default quality 85. Two matches → coverage
	// 0.7 + 0.3*0.5 = 0.85 → floor(85*0.85) = 72, above the 70 threshold.
	evidence := "I did install the app and wrote a review describing the experience. " +
		strings.Repeat("More detail about what I saw. ", 3)
	if len(evidence) < 100 {
		t.Fatal("test evidence must satisfy min length")
	}

	eval := gate.Evaluate(EvaluationInput{EvidenceText: evidence, SubmittedAt: now}, "app_review", now)

	if !eval.CanApprove {
		t.Fatalf("expected approval, got reasons: %v", eval.Reasons)
	}
	if eval.QualityScore != 72 {
		t.Fatalf("expected discounted quality 72, got %d", eval.QualityScore)
	}
}

func TestEvaluateFullKeywordCoverage(t *testing.T) {
	gate := newGateForTest()
	now := time.Now()

	evidence := "Shared the campaign, posted it to my feed, here is the link: https://example.com/p/1"
	eval := gate.Evaluate(EvaluationInput{EvidenceText: evidence, SubmittedAt: now}, "social_share", now)

	if !eval.CanApprove {
		t.Fatalf("expected approval, got reasons: %v", eval.Reasons)
	}
	// Full coverage keeps the default quality of 75.
	if eval.QualityScore != 75 {
		t.Fatalf("expected quality 75, got %d", eval.QualityScore)
	}
}

func TestEvaluateStaleSubmissionFailsTimeLimit(t *testing.T) {
	gate := newGateForTest()
	now := time.Now()

	// social_follow allows 30 minutes; this one is 45 minutes old.
	eval := gate.Evaluate(EvaluationInput{
		EvidenceText: "followed the account",
		SubmittedAt:  now.Add(-45 * time.Minute),
	}, "social_follow", now)

	if eval.CanApprove {
		t.Fatal("stale submission must fall through to manual review")
	}
	if len(eval.Reasons) != 1 || !strings.Contains(eval.Reasons[0], "window") {
		t.Fatalf("expected the time-window reason, got %v", eval.Reasons)
	}
}

func TestEvaluateFileBonusAndCap(t *testing.T) {
	rules := []models.AutoApprovalRule{
		{
			TaskType:            "screenshot_proof",
			AutoApprove:         true,
			DefaultQualityScore: 95,
			Conditions: models.ApprovalConditions{
				MinEvidenceLength: intPtrForTest(5),
			},
		},
	}
	gate := NewAutoApprovalService(rules)
	now := time.Now()

	withFile := gate.Evaluate(EvaluationInput{
		EvidenceText:    "see attached",
		HasEvidenceFile: true,
		SubmittedAt:     now,
	}, "screenshot_proof", now)

	if !withFile.CanApprove {
		t.Fatalf("expected approval, got reasons: %v", withFile.Reasons)
	}
	// 95 + 10 caps at 100.
	if withFile.QualityScore != 100 {
		t.Fatalf("expected capped quality 100, got %d", withFile.QualityScore)
	}

	withoutFile := gate.Evaluate(EvaluationInput{
		EvidenceText: "see attached",
		SubmittedAt:  now,
	}, "screenshot_proof", now)
	if withoutFile.QualityScore != 95 {
		t.Fatalf("expected quality 95 without file, got %d", withoutFile.QualityScore)
	}
}

func TestEvaluateQualityThresholdFailure(t *testing.T) {
	rules := []models.AutoApprovalRule{
		{
			TaskType:            "strict_type",
			AutoApprove:         true,
			DefaultQualityScore: 50,
			Conditions: models.ApprovalConditions{
				QualityThreshold: intPtrForTest(80),
			},
		},
	}
	gate := NewAutoApprovalService(rules)
	now := time.Now()

	eval := gate.Evaluate(EvaluationInput{EvidenceText: "whatever", SubmittedAt: now}, "strict_type", now)

	if eval.CanApprove {
		t.Fatal("quality below threshold must not approve")
	}
	if eval.QualityScore != 0 {
		t.Fatalf("failed evaluation must carry quality 0, got %d", eval.QualityScore)
	}
	found := false
	for _, r := range eval.Reasons {
		if strings.Contains(r, "below threshold") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected threshold reason, got %v", eval.Reasons)
	}
}

func TestEvaluateSuccessReasonTrail(t *testing.T) {
	gate := newGateForTest()
	now := time.Now()

	eval := gate.Evaluate(EvaluationInput{
		EvidenceText: strings.Repeat("survey answers with real substance ", 3),
		SubmittedAt:  now,
	}, "survey", now)

	if !eval.CanApprove {
		t.Fatalf("expected approval, got reasons: %v", eval.Reasons)
	}
	if eval.QualityScore != 80 {
		t.Fatalf("expected default quality 80, got %d", eval.QualityScore)
	}
	last := eval.Reasons[len(eval.Reasons)-1]
	if last != "auto-approval conditions met" {
		t.Fatalf("expected success trailer, got %q", last)
	}
}

func intPtrForTest(v int) *int { return &v }
