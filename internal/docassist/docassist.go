// Package docassist implements the documentation/error-help collaborator:
// it maps an error message to a structured help payload, with in-memory and
// on-disk caching of answers.
package docassist

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/atenabot/atena/internal/docassist/helpstore"
	"github.com/atenabot/atena/internal/domain"
	"github.com/atenabot/atena/pkg/cache"
	"github.com/atenabot/atena/pkg/logger"
)

const (
	memoryTTL  = 15 * time.Minute
	storeTTL   = 24 * time.Hour
	probeLimit = 3 * time.Second
)

// Assistant satisfies ports.DocAssistant.
type Assistant struct {
	patterns []pattern
	baseURL  string
	memory   *cache.InMemoryCache[string, *domain.ErrorHelp]
	store    *helpstore.Store // optional persistent cache
	client   *resty.Client
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithStore attaches a persistent help cache.
func WithStore(store *helpstore.Store) Option {
	return func(a *Assistant) { a.store = store }
}

// New builds an assistant. baseURL is the documentation site doc links are
// rooted at.
func New(baseURL string, opts ...Option) *Assistant {
	a := &Assistant{
		patterns: defaultPatterns(),
		baseURL:  strings.TrimRight(baseURL, "/"),
		memory:   cache.NewInMemoryCache[string, *domain.ErrorHelp](memoryTTL),
		client: resty.New().
			SetTimeout(probeLimit).
			SetRetryCount(1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeError resolves message to a help payload. Answers come from the
// in-memory cache, then the persistent store, then the pattern table.
func (a *Assistant) AnalyzeError(ctx context.Context, message string) (*domain.ErrorHelp, error) {
	key := cacheKey(message)

	if help, ok := a.memory.Get(key); ok {
		return help, nil
	}
	if a.store != nil {
		if help, found, err := a.store.Get(key); err == nil && found {
			a.memory.Set(key, help, 0)
			return help, nil
		}
	}

	help := a.resolve(ctx, message)

	a.memory.Set(key, help, 0)
	if a.store != nil {
		if err := a.store.Put(key, help, storeTTL); err != nil {
			logger.Warnf("help store put failed: %v", err)
		}
	}
	return help, nil
}

func (a *Assistant) resolve(ctx context.Context, message string) *domain.ErrorHelp {
	for _, p := range a.patterns {
		if !p.match.MatchString(message) {
			continue
		}
		links := make([]string, 0, len(p.docPaths))
		for _, docPath := range p.docPaths {
			links = append(links, a.baseURL+docPath)
		}
		return &domain.ErrorHelp{
			ErrorType:   p.errorType,
			Summary:     p.summary,
			Suggestions: append([]string(nil), p.suggest...),
			DocLinks:    a.verifyLinks(ctx, links),
		}
	}
	return unknownHelp(message)
}

// verifyLinks drops doc links that do not answer. Network trouble keeps the
// links as-is rather than degrading the payload.
func (a *Assistant) verifyLinks(ctx context.Context, links []string) []string {
	verified := make([]string, 0, len(links))
	for _, link := range links {
		resp, err := a.client.R().SetContext(ctx).Head(link)
		if err != nil {
			return links
		}
		if resp.StatusCode() < 400 {
			verified = append(verified, link)
		}
	}
	if len(verified) == 0 {
		return links
	}
	return verified
}

func cacheKey(message string) string {
	norm := strings.ToLower(strings.TrimSpace(message))
	sum := sha1.Sum([]byte(norm))
	return hex.EncodeToString(sum[:])
}
