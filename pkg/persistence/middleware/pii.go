package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/ports"
)

// Mask replaces the values of masked keys.
const Mask = "***"

type piiMiddleware struct {
	next     ports.Storage
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the
// patterns before they reach storage. Masked values are not recoverable.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.Storage) ports.Storage {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Find(ctx context.Context, id string) (domain.Document, error) {
	return m.next.Find(ctx, id)
}

func (m *piiMiddleware) Insert(ctx context.Context, doc domain.Document) (string, error) {
	return m.next.Insert(ctx, m.mask(doc))
}

func (m *piiMiddleware) Update(ctx context.Context, id string, doc domain.Document) error {
	return m.next.Update(ctx, id, m.mask(doc))
}

func (m *piiMiddleware) Remove(ctx context.Context, id string) error {
	return m.next.Remove(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// mask works on a deep copy so the caller's document is untouched.
func (m *piiMiddleware) mask(doc domain.Document) domain.Document {
	cloned := doc.Clone()
	maskMap(cloned, m.patterns)
	return cloned
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}

		switch sub := v.(type) {
		case map[string]any:
			maskMap(sub, patterns)
		case domain.Document:
			maskMap(sub, patterns)
		}
	}
}
