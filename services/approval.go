// services/approval.go
package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"task-reward-system/models"
)

// EvidenceFileQualityBonus is added flat when a submission carries a file.
const EvidenceFileQualityBonus = 10

// ApprovalEvaluation is the gate's structured outcome. A failing evaluation
// is a normal business result (defer to manual review), never an error.
type ApprovalEvaluation struct {
	CanApprove   bool     `json:"can_approve"`
	QualityScore int      `json:"quality_score"`
	Reasons      []string `json:"reasons"`
}

// EvaluationInput is the slice of a submission the gate inspects.
type EvaluationInput struct {
	EvidenceText    string
	HasEvidenceFile bool
	SubmittedAt     time.Time
}

// AutoApprovalService evaluates pending submissions against the per-task-type
// rule table. The table is injected at construction (immutable afterwards)
// so tests can run with alternate rule sets.
type AutoApprovalService struct {
	Rules map[string]models.AutoApprovalRule
}

func NewAutoApprovalService(rules []models.AutoApprovalRule) *AutoApprovalService {
	return &AutoApprovalService{Rules: models.ApprovalRuleMap(rules)}
}

// Evaluate checks the rule conditions in order and short-circuits on the
// first failure — later conditions are not evaluated. `now` is passed in so
// the submission-age check is testable.
func (s *AutoApprovalService) Evaluate(sub EvaluationInput, taskType string, now time.Time) ApprovalEvaluation {
	rule, ok := s.Rules[taskType]
	if !ok {
		return ApprovalEvaluation{
			CanApprove: false,
			Reasons:    []string{fmt.Sprintf("no auto-approval rule for task type %q", taskType)},
		}
	}
	if !rule.AutoApprove {
		return ApprovalEvaluation{
			CanApprove: false,
			Reasons:    []string{fmt.Sprintf("auto-approval disabled for task type %q", taskType)},
		}
	}

	var reasons []string
	quality := rule.DefaultQualityScore
	cond := rule.Conditions

	if cond.MinEvidenceLength != nil && len(sub.EvidenceText) < *cond.MinEvidenceLength {
		return ApprovalEvaluation{
			CanApprove: false,
			Reasons: []string{fmt.Sprintf("evidence text too short (%d < %d characters)",
				len(sub.EvidenceText), *cond.MinEvidenceLength)},
		}
	}

	if len(cond.RequiredKeywords) > 0 {
		evidence := strings.ToLower(sub.EvidenceText)
		matched := 0
		for _, kw := range cond.RequiredKeywords {
			if strings.Contains(evidence, strings.ToLower(kw)) {
				matched++
			}
		}
		if matched == 0 {
			return ApprovalEvaluation{
				CanApprove: false,
				Reasons:    []string{"none of the required keywords found in evidence"},
			}
		}
		// Partial keyword coverage partially discounts quality rather than
		// binary pass/fail.
		coverage := 0.7 + 0.3*float64(matched)/float64(len(cond.RequiredKeywords))
		quality = int(math.Floor(float64(rule.DefaultQualityScore) * coverage))
		if matched < len(cond.RequiredKeywords) {
			reasons = append(reasons, fmt.Sprintf("matched %d of %d required keywords", matched, len(cond.RequiredKeywords)))
		} else {
			reasons = append(reasons, "all required keywords present")
		}
	}

	if cond.AutoApproveTimeLimit != nil {
		age := now.Sub(sub.SubmittedAt)
		limit := time.Duration(*cond.AutoApproveTimeLimit) * time.Minute
		if age > limit {
			return ApprovalEvaluation{
				CanApprove: false,
				Reasons: []string{fmt.Sprintf("submission is %.0f minutes old, auto-approval window is %d minutes",
					age.Minutes(), *cond.AutoApproveTimeLimit)},
			}
		}
	}

	if sub.HasEvidenceFile {
		quality += EvidenceFileQualityBonus
		if quality > 100 {
			quality = 100
		}
		reasons = append(reasons, "evidence file attached")
	}

	if cond.QualityThreshold != nil && quality < *cond.QualityThreshold {
		return ApprovalEvaluation{
			CanApprove: false,
			Reasons: append(reasons, fmt.Sprintf("quality score %d below threshold %d",
				quality, *cond.QualityThreshold)),
		}
	}

	reasons = append(reasons, "auto-approval conditions met")
	return ApprovalEvaluation{CanApprove: true, QualityScore: quality, Reasons: reasons}
}
