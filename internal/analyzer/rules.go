package analyzer

import (
	"regexp"
	"strings"

	"github.com/atenabot/atena/internal/domain"
)

type rule struct {
	pattern    *regexp.Regexp
	severity   string
	message    string
	testExempt bool // skipped in _test.go files
	maxLineLen int  // when >0, fires on line length instead of the pattern
}

func (r rule) matches(line string) bool {
	if r.maxLineLen > 0 {
		return len(line) > r.maxLineLen
	}
	return r.pattern.MatchString(line)
}

func defaultRules() []rule {
	return []rule{
		{
			pattern:  regexp.MustCompile(`(?i)\b(TODO|FIXME|XXX)\b`),
			severity: domain.SeverityLow,
			message:  "unresolved TODO/FIXME marker",
		},
		{
			pattern:    regexp.MustCompile(`\bfmt\.Print(ln|f)?\(|\bconsole\.log\(|\bprint\(`),
			severity:   domain.SeverityLow,
			message:    "debug print statement",
			testExempt: true,
		},
		{
			pattern:    regexp.MustCompile(`\bpanic\(`),
			severity:   domain.SeverityMedium,
			message:    "panic in library code",
			testExempt: true,
		},
		{
			pattern:    regexp.MustCompile(`\bos\.Exit\(|\bsys\.exit\(`),
			severity:   domain.SeverityMedium,
			message:    "hard process exit",
			testExempt: true,
		},
		{
			pattern:  regexp.MustCompile(`(?i)(password|passwd|secret|api_?key|token)\s*[:=]\s*["'][^"']{4,}["']`),
			severity: domain.SeverityHigh,
			message:  "possible hardcoded credential",
		},
		{
			severity:   domain.SeverityLow,
			message:    "line longer than 160 characters",
			maxLineLen: 160,
		},
	}
}

// severityRank orders severities for report output, highest first.
func severityRank(severity string) int {
	switch strings.ToUpper(severity) {
	case domain.SeverityHigh:
		return 0
	case domain.SeverityMedium:
		return 1
	default:
		return 2
	}
}
