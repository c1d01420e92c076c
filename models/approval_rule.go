// models/approval_rule.go
package models

// ApprovalConditions are the optional per-rule thresholds. A nil field means
// the condition is not checked.
type ApprovalConditions struct {
	MinEvidenceLength    *int     `json:"min_evidence_length,omitempty"`
	RequiredKeywords     []string `json:"required_keywords,omitempty"`
	AutoApproveTimeLimit *int     `json:"auto_approve_time_limit,omitempty"` // minutes since submission
	QualityThreshold     *int     `json:"quality_threshold,omitempty"`
}

// AutoApprovalRule gates programmatic acceptance for one task type.
type AutoApprovalRule struct {
	TaskType            string             `json:"task_type"`
	AutoApprove         bool               `json:"auto_approve"`
	DefaultQualityScore int                `json:"default_quality_score"`
	Conditions          ApprovalConditions `json:"conditions"`
}

func intPtr(v int) *int { return &v }

// DefaultApprovalRules is the static per-task-type rule set loaded at process
// start. Services receive it as an injected map so tests can swap it out.
var DefaultApprovalRules = []AutoApprovalRule{
	{
		TaskType:            "social_follow",
		AutoApprove:         true,
		DefaultQualityScore: 70,
		Conditions: ApprovalConditions{
			MinEvidenceLength:    intPtr(10),
			AutoApproveTimeLimit: intPtr(30),
		},
	},
	{
		TaskType:            "social_share",
		AutoApprove:         true,
		DefaultQualityScore: 75,
		Conditions: ApprovalConditions{
			MinEvidenceLength:    intPtr(20),
			RequiredKeywords:     []string{"shared", "posted", "link"},
			AutoApproveTimeLimit: intPtr(60),
			QualityThreshold:     intPtr(60),
		},
	},
	{
		TaskType:            "survey",
		AutoApprove:         true,
		DefaultQualityScore: 80,
		Conditions: ApprovalConditions{
			MinEvidenceLength: intPtr(50),
			QualityThreshold:  intPtr(65),
		},
	},
	{
		TaskType:            "app_review",
		AutoApprove:         true,
		DefaultQualityScore: 85,
		Conditions: ApprovalConditions{
			MinEvidenceLength:    intPtr(100),
			RequiredKeywords:     []string{"install", "review", "rating", "store"},
			AutoApproveTimeLimit: intPtr(120),
			QualityThreshold:     intPtr(70),
		},
	},
	{
		// Long-form content always goes to a human reviewer.
		TaskType:            "content_creation",
		AutoApprove:         false,
		DefaultQualityScore: 0,
	},
}

// ApprovalRuleMap indexes a rule slice by task type.
func ApprovalRuleMap(rules []AutoApprovalRule) map[string]AutoApprovalRule {
	m := make(map[string]AutoApprovalRule, len(rules))
	for _, r := range rules {
		m[r.TaskType] = r
	}
	return m
}
