package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
)

// Mask replaces redacted parameter values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.MacroStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks intent parameters whose
// name matches one of the patterns (e.g. "identifier" or "^query$") before
// macros are persisted. Masking is one way: reads return the masked values.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.MacroStore) ports.MacroStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Put(ctx context.Context, userID string, macro domain.Macro) error {
	envs := domain.ToEnvelopes(macro.Actions)
	for i := range envs {
		envs[i].Params = maskParams(envs[i].Params, m.patterns)
	}
	masked, err := domain.FromEnvelopes(envs)
	if err != nil {
		return fmt.Errorf("failed to mask macro %q: %w", macro.Trigger, err)
	}
	macro.Actions = masked
	return m.next.Put(ctx, userID, macro)
}

func (m *piiMiddleware) Get(ctx context.Context, userID, trigger string) (domain.Macro, error) {
	return m.next.Get(ctx, userID, trigger)
}

func (m *piiMiddleware) Delete(ctx context.Context, userID, trigger string) error {
	return m.next.Delete(ctx, userID, trigger)
}

func (m *piiMiddleware) List(ctx context.Context, userID string) ([]domain.Macro, error) {
	return m.next.List(ctx, userID)
}

// maskParams returns a copy of params with matching string values masked.
// Non-string values (e.g. a check-in index) keep their type.
func maskParams(params map[string]any, patterns []*regexp.Regexp) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
		if _, ok := v.(string); !ok {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(k) {
				out[k] = Mask
				break
			}
		}
	}
	return out
}
