package ports

import (
	"context"

	"github.com/atenabot/atena/internal/domain"
)

// Collaborator interfaces consumed by the supervisor. Defined in a neutral
// package to keep the supervisor free of dependencies on the concrete
// analyzer and doc assistant.

// Analyzer scans a path and returns per-file findings.
type Analyzer interface {
	AnalyzePath(ctx context.Context, path string) ([]domain.FileResult, error)
}

// DocAssistant maps an error message to a structured help payload.
type DocAssistant interface {
	AnalyzeError(ctx context.Context, message string) (*domain.ErrorHelp, error)
}
