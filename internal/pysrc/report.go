package pysrc

import "time"

const Version = "1.0"

// Report statuses. StatusOK means the enabled rules ran (findings may
// still be empty); StatusNoRulesEnabled means every category was
// filtered out, so "zero findings" carries no information.
const (
	StatusOK             = "ok"
	StatusNoRulesEnabled = "no-rules-enabled"
)

// SkippedRule records a rule that failed on an unexpected tree shape
// and was dropped from the run instead of aborting it.
type SkippedRule struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
}

// Report is the result of analyzing one source file.
type Report struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	Version   string    `json:"version,omitempty"`

	Status   string        `json:"status"`
	RulesRun int           `json:"rules_run"`
	Skipped  []SkippedRule `json:"skipped,omitempty"`
	Findings []Finding     `json:"findings,omitempty"`
}

// Counts returns the number of findings per category.
func (r *Report) Counts() (opt, sec int) {
	for _, f := range r.Findings {
		switch f.Category {
		case CategoryOptimization:
			opt++
		case CategorySecurity:
			sec++
		}
	}
	return opt, sec
}
