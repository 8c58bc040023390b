package docassist

import (
	"regexp"

	"github.com/atenabot/atena/internal/domain"
)

type pattern struct {
	match     *regexp.Regexp
	errorType string
	summary   string
	suggest   []string
	docPaths  []string // appended to the configured doc base URL
}

func defaultPatterns() []pattern {
	return []pattern{
		{
			match:     regexp.MustCompile(`(?i)nil pointer dereference|invalid memory address`),
			errorType: "NilPointerDereference",
			summary:   "A nil pointer or interface was dereferenced.",
			suggest: []string{
				"Check that the value is constructed before use",
				"Guard optional fields with a nil check",
				"Inspect the stack trace for the dereferencing line",
			},
			docPaths: []string{"/builtin#error", "/runtime"},
		},
		{
			match:     regexp.MustCompile(`(?i)index out of range|slice bounds out of range`),
			errorType: "IndexOutOfRange",
			summary:   "An index exceeded the length of a slice or array.",
			suggest: []string{
				"Validate index against len() before access",
				"Prefer range loops over manual indexing",
			},
			docPaths: []string{"/builtin#len"},
		},
		{
			match:     regexp.MustCompile(`(?i)all goroutines are asleep|deadlock`),
			errorType: "Deadlock",
			summary:   "Every goroutine is blocked; typically an unbuffered channel with no counterpart.",
			suggest: []string{
				"Make sure every channel send has a receiver",
				"Check lock ordering across goroutines",
				"Consider buffered channels or select with default",
			},
			docPaths: []string{"/sync", "/runtime"},
		},
		{
			match:     regexp.MustCompile(`(?i)permission denied`),
			errorType: "PermissionDenied",
			summary:   "The process lacks filesystem or network permissions for the operation.",
			suggest: []string{
				"Check file ownership and mode bits",
				"Verify the process user and any sandboxing",
			},
			docPaths: []string{"/os#Chmod"},
		},
		{
			match:     regexp.MustCompile(`(?i)connection refused|no such host|i/o timeout`),
			errorType: "NetworkError",
			summary:   "The remote endpoint is unreachable or not listening.",
			suggest: []string{
				"Confirm the target address and port",
				"Check DNS resolution and firewall rules",
				"Add retry with backoff for transient failures",
			},
			docPaths: []string{"/net", "/net/http"},
		},
		{
			match:     regexp.MustCompile(`(?i)cannot find (package|module)|no required module provides`),
			errorType: "ModuleNotFound",
			summary:   "A dependency is missing from the module graph.",
			suggest: []string{
				"Run the install subcommand to fetch dependencies",
				"Check the import path for typos",
				"Run go mod tidy to sync the manifest",
			},
			docPaths: []string{"/cmd/go#hdr-Add_dependencies_to_current_module_and_install_them"},
		},
		{
			match:     regexp.MustCompile(`(?i)context (deadline exceeded|canceled)`),
			errorType: "ContextExpired",
			summary:   "An operation outlived its context deadline or was canceled.",
			suggest: []string{
				"Raise the timeout if the operation is legitimately slow",
				"Propagate the caller's context instead of a fresh one",
			},
			docPaths: []string{"/context"},
		},
		{
			match:     regexp.MustCompile(`(?i)address already in use`),
			errorType: "AddressInUse",
			summary:   "Another process is already bound to the requested port.",
			suggest: []string{
				"Stop the other listener or choose another PORT",
				"Check for a previous instance that did not shut down",
			},
			docPaths: []string{"/net#Listen"},
		},
	}
}

// unknownHelp is the fallback payload when no pattern matches.
func unknownHelp(message string) *domain.ErrorHelp {
	return &domain.ErrorHelp{
		ErrorType: "Unknown",
		Summary:   "No known pattern matched this error message.",
		Suggestions: []string{
			"Search the message verbatim in the project issue tracker",
			"Re-run with LOG_LEVEL=debug for more context",
		},
		DocLinks: []string{},
	}
}
