package analyzer

import (
	"fmt"
	"io"
	"sort"

	"github.com/atenabot/atena/internal/domain"
)

// WriteReport renders a human-readable findings report, used by the CLI
// analyze subcommand.
func WriteReport(w io.Writer, results []domain.FileResult) {
	summary := Summarize(results)

	fmt.Fprintf(w, "Analyzed %d files, %d issues\n", summary.FilesAnalyzed, summary.TotalIssues)
	fmt.Fprintf(w, "  HIGH=%d MEDIUM=%d LOW=%d\n",
		summary.IssuesBySeverity[domain.SeverityHigh],
		summary.IssuesBySeverity[domain.SeverityMedium],
		summary.IssuesBySeverity[domain.SeverityLow])

	for _, r := range results {
		if len(r.Issues) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", r.Path)
		issues := append([]domain.Issue(nil), r.Issues...)
		sort.SliceStable(issues, func(i, j int) bool {
			if severityRank(issues[i].Severity) != severityRank(issues[j].Severity) {
				return severityRank(issues[i].Severity) < severityRank(issues[j].Severity)
			}
			return issues[i].Line < issues[j].Line
		})
		for _, issue := range issues {
			fmt.Fprintf(w, "  [%s] line %d: %s\n", issue.Severity, issue.Line, issue.Message)
		}
	}
}
