package pysrc

// Category classifies a finding as an optimization-hygiene or a
// security issue.
type Category string

const (
	CategoryOptimization Category = "OPTIMIZATION"
	CategorySecurity     Category = "SECURITY"
)

// Severity levels, lowest to highest.
const (
	SeverityLow    = "LOW"
	SeverityMedium = "MEDIUM"
	SeverityHigh   = "HIGH"
)

// Finding is one reported issue. Findings are pure value objects; the
// registry orders them, nothing mutates them afterwards. Line always
// references a line present in the SourceUnit's line table.
type Finding struct {
	RuleID     string   `json:"rule_id"`
	Category   Category `json:"category"`
	Severity   string   `json:"severity"`
	Line       int      `json:"line"`
	Col        int      `json:"col,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	CVE        string   `json:"cve,omitempty"`
}
