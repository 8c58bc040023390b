package domain

// Issue severities, highest first.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Issue is one finding inside a scanned file.
type Issue struct {
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

// FileResult is the analyzer's per-file output.
type FileResult struct {
	Path   string  `json:"path"`
	Issues []Issue `json:"issues"`
}

// AnalysisSummary folds a set of FileResults into counters.
type AnalysisSummary struct {
	FilesAnalyzed    int            `json:"files_analyzed"`
	TotalIssues      int            `json:"total_issues"`
	IssuesBySeverity map[string]int `json:"issues_by_severity"`
}

// ErrorHelp is the doc assistant's structured answer for one error message.
type ErrorHelp struct {
	ErrorType   string   `json:"error_type"`
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
	DocLinks    []string `json:"doc_links"`
}
