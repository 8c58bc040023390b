// Package deps manages module dependencies through the host Go toolchain.
package deps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/atenabot/atena/internal/executor"
	"github.com/atenabot/atena/pkg/oplog"
)

// Manager installs and lists module dependencies for the project rooted at
// BaseDir. All package-manager invocations go through the command executor,
// so they inherit its timeout and logging behavior.
type Manager struct {
	BaseDir      string
	ManifestName string
	exec         *executor.Executor
	ops          *oplog.Sink
}

func NewManager(baseDir string, exec *executor.Executor, ops *oplog.Sink) *Manager {
	return &Manager{
		BaseDir:      baseDir,
		ManifestName: "go.mod",
		exec:         exec,
		ops:          ops,
	}
}

// ManifestPath is the module manifest the project installs from.
func (m *Manager) ManifestPath() string {
	return filepath.Join(m.BaseDir, m.ManifestName)
}

// InstallDependencies downloads all modules named by the manifest. Returns
// false without running any subprocess when the manifest is missing. With
// upgrade set, dependencies are bumped to their latest minor/patch versions.
func (m *Manager) InstallDependencies(ctx context.Context, upgrade bool) bool {
	manifest := m.ManifestPath()
	if _, err := os.Stat(manifest); err != nil {
		m.ops.LogError("install_dependencies",
			errors.Wrapf(err, "manifest not found: %s", manifest))
		return false
	}

	command := "go mod download"
	if upgrade {
		command = "go get -u ./... && go mod tidy"
	}

	m.ops.LogOperation("install_dependencies", oplog.StatusStarted, manifest)
	res := m.exec.Run(ctx, command, executor.Options{Dir: m.BaseDir})
	if !res.Success {
		m.ops.LogError("install_dependencies", fmt.Errorf("install failed: %s", strings.TrimSpace(res.Stderr)))
		if res.Stderr != "" {
			fmt.Fprintf(os.Stderr, "Error output: %s\n", res.Stderr)
		}
		return false
	}
	m.ops.LogOperation("install_dependencies", oplog.StatusSuccess, fmt.Sprintf("Installed from %s", manifest))
	return true
}

// InstallPackage fetches a single module. No manifest existence check: the
// toolchain reports its own error when there is no module context.
func (m *Manager) InstallPackage(ctx context.Context, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		m.ops.LogError("install_package", errors.New("empty package name"))
		return false
	}

	m.ops.LogOperation("install_package", oplog.StatusStarted, name)
	res := m.exec.Run(ctx, fmt.Sprintf("go get %s", shellQuote(name)), executor.Options{Dir: m.BaseDir})
	if !res.Success {
		m.ops.LogError("install_package", fmt.Errorf("%s: %s", name, strings.TrimSpace(res.Stderr)))
		return false
	}
	m.ops.LogOperation("install_package", oplog.StatusSuccess, name)
	return true
}

// ListInstalled returns the module listing, one "path version" entry per
// line, main module first.
func (m *Manager) ListInstalled(ctx context.Context) ([]string, error) {
	res := m.exec.Run(ctx, "go list -m all", executor.Options{Dir: m.BaseDir})
	if !res.Success {
		return nil, errors.Errorf("go list failed: %s", strings.TrimSpace(res.Stderr))
	}
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return []string{}, nil
	}
	return strings.Split(out, "\n"), nil
}

// shellQuote wraps name in single quotes for the sh -c invocation.
func shellQuote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", `'\''`) + "'"
}
