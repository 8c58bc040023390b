// Package analyzer implements the code-analysis collaborator: it walks a
// tree, scans source files against a small rule table, and reports findings
// tagged by severity.
package analyzer

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/atenabot/atena/internal/domain"
)

const scanConcurrency = 8

// maxLineBytes guards the scanner against minified/generated single-line files.
const maxLineBytes = 1 << 20

var skipDirs = map[string]struct{}{
	".git":         {},
	"vendor":       {},
	"node_modules": {},
	"testdata":     {},
}

var sourceExts = map[string]struct{}{
	".go": {}, ".py": {}, ".js": {}, ".ts": {}, ".sh": {}, ".rb": {}, ".java": {},
}

// Analyzer satisfies ports.Analyzer.
type Analyzer struct {
	rules []rule
}

func New() *Analyzer {
	return &Analyzer{rules: defaultRules()}
}

// AnalyzePath scans path (file or directory) and returns per-file results
// ordered by path. A nonexistent path is an error.
func (a *Analyzer) AnalyzePath(ctx context.Context, path string) ([]domain.FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("analyze path %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if _, skip := skipDirs[name]; skip {
					return filepath.SkipDir
				}
				if strings.HasPrefix(name, ".") && p != path {
					return filepath.SkipDir
				}
				return nil
			}
			if _, ok := sourceExts[filepath.Ext(name)]; ok {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	} else {
		files = []string{path}
	}

	var (
		mu      sync.Mutex
		results []domain.FileResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for _, file := range files {
		f := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			issues, err := a.scanFile(f)
			if err != nil {
				// Unreadable files are skipped, not fatal for the whole run.
				return nil
			}
			mu.Lock()
			results = append(results, domain.FileResult{Path: f, Issues: issues})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

func (a *Analyzer) scanFile(path string) ([]domain.Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	isTest := strings.HasSuffix(path, "_test.go")
	issues := []domain.Issue{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, r := range a.rules {
			if r.testExempt && isTest {
				continue
			}
			if r.matches(line) {
				issues = append(issues, domain.Issue{
					Severity: r.severity,
					Line:     lineNo,
					Message:  r.message,
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return issues, nil
}

// Summarize folds per-file results into the summary counters. Severities
// with no findings still appear with a zero count.
func Summarize(results []domain.FileResult) domain.AnalysisSummary {
	summary := domain.AnalysisSummary{
		FilesAnalyzed: len(results),
		IssuesBySeverity: map[string]int{
			domain.SeverityHigh:   0,
			domain.SeverityMedium: 0,
			domain.SeverityLow:    0,
		},
	}
	for _, r := range results {
		summary.TotalIssues += len(r.Issues)
		for _, issue := range r.Issues {
			summary.IssuesBySeverity[issue.Severity]++
		}
	}
	return summary
}
