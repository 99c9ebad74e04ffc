// Package macro holds the user-scoped registry of voice macros: custom
// trigger phrases that replay a stored list of intents.
package macro

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/textutil"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/parser"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
)

// DefaultReserved returns the words a trigger may never equal: parser
// keywords, wake phrases and the assistant name.
func DefaultReserved() []string {
	out := append(parser.Keywords(), normalize.DefaultWakePhrases...)
	return append(out, normalize.AssistantName)
}

// Registry manages the macros of one user.
// Writes go through to the store before the in-memory view changes.
type Registry struct {
	mu     sync.RWMutex
	macros map[string]domain.Macro
	// order is sorted by trigger length descending, then lexically.
	order []string

	store    ports.MacroStore
	userID   string
	reserved map[string]bool
	wake     []string
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithReserved adds reserved words.
func WithReserved(words ...string) Option {
	return func(r *Registry) {
		for _, w := range words {
			if w = textutil.Canonical(w); w != "" {
				r.reserved[w] = true
			}
		}
	}
}

// WithWakePhrases sets the wake phrases a trigger may not contain.
func WithWakePhrases(phrases ...string) Option {
	return func(r *Registry) {
		r.wake = r.wake[:0]
		for _, p := range phrases {
			if p = textutil.Canonical(p); p != "" {
				r.wake = append(r.wake, p)
				r.reserved[p] = true
			}
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry for userID. A nil store keeps macros in memory only.
func NewRegistry(store ports.MacroStore, userID string, opts ...Option) *Registry {
	r := &Registry{
		macros:   make(map[string]domain.Macro),
		store:    store,
		userID:   userID,
		reserved: make(map[string]bool),
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, w := range DefaultReserved() {
		r.reserved[textutil.Canonical(w)] = true
	}
	for _, p := range normalize.DefaultWakePhrases {
		r.wake = append(r.wake, textutil.Canonical(p))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UserID returns the owner of the registry.
func (r *Registry) UserID() string {
	return r.userID
}

// Load replaces the in-memory view with the store contents.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	list, err := r.store.List(ctx, r.userID)
	if err != nil {
		return fmt.Errorf("failed to load macros: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.macros = make(map[string]domain.Macro, len(list))
	for _, m := range list {
		m.Trigger = textutil.Canonical(m.Trigger)
		if err := r.validate(m.Trigger, m.Actions); err != nil {
			r.logger.Warn("Skipping stored macro", "trigger", m.Trigger, "error", err)
			continue
		}
		r.macros[m.Trigger] = m
	}
	r.reindex()
	r.logger.Debug("Macros loaded", "user", r.userID, "count", len(r.macros))
	return nil
}

// Register adds a macro. It never overwrites an existing trigger.
func (r *Registry) Register(ctx context.Context, trigger string, actions []domain.Intent) error {
	t := textutil.Canonical(trigger)
	if err := r.validate(t, actions); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.macros[t]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateTrigger, t)
	}

	m := domain.Macro{Trigger: t, Actions: domain.CloneIntents(actions), CreatedAt: r.now().UTC()}
	if r.store != nil {
		if err := r.store.Put(ctx, r.userID, m); err != nil {
			return fmt.Errorf("failed to persist macro %q: %w", t, err)
		}
	}
	r.macros[t] = m
	r.reindex()
	r.logger.Debug("Macro registered", "trigger", t, "actions", len(actions))
	return nil
}

func (r *Registry) validate(trigger string, actions []domain.Intent) error {
	if trigger == "" {
		return domain.ErrEmptyTrigger
	}
	if r.reserved[trigger] || parser.IsMacroDefinition(trigger) {
		return fmt.Errorf("%w: %q", domain.ErrReservedTrigger, trigger)
	}
	if it, ok := builtIn(trigger); ok {
		return fmt.Errorf("%w: %q is already the command %s", domain.ErrReservedTrigger, trigger, it)
	}
	for _, w := range r.wake {
		if textutil.ContainsPhrase(trigger, w) {
			return fmt.Errorf("%w: %q contains wake phrase %q", domain.ErrReservedTrigger, trigger, w)
		}
	}
	if len(actions) == 0 {
		return domain.ErrEmptyMacro
	}
	for _, a := range actions {
		if a.Kind() == domain.KindCreateMacro {
			return domain.ErrNestedMacro
		}
	}
	return nil
}

// commands parses triggers without macro expansion.
var commands = parser.New()

// builtIn returns the first intent a trigger already means on its own.
// Macros expand before classification, so such a trigger would hide it.
func builtIn(trigger string) (domain.Intent, bool) {
	for _, it := range commands.Parse(trigger) {
		if it.Kind() != domain.KindUnknown {
			return it, true
		}
	}
	return nil, false
}

// Delete removes a macro.
// Returns domain.ErrMacroNotFound if the trigger is not registered.
func (r *Registry) Delete(ctx context.Context, trigger string) error {
	t := textutil.Canonical(trigger)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.macros[t]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrMacroNotFound, t)
	}
	if r.store != nil {
		if err := r.store.Delete(ctx, r.userID, t); err != nil {
			return fmt.Errorf("failed to delete macro %q: %w", t, err)
		}
	}
	delete(r.macros, t)
	r.reindex()
	r.logger.Debug("Macro deleted", "trigger", t)
	return nil
}

// Get returns one macro by trigger.
func (r *Registry) Get(trigger string) (domain.Macro, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.macros[textutil.Canonical(trigger)]
	if !ok {
		return domain.Macro{}, false
	}
	return m.Clone(), true
}

// Match finds the longest trigger contained in text as whole words.
// text must already be canonical; offsets refer to it.
func (r *Registry) Match(text string) (domain.MacroMatch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.order {
		if i := textutil.IndexPhrase(text, t); i >= 0 {
			return domain.MacroMatch{
				Trigger: t,
				Start:   i,
				End:     i + len(t),
				Actions: domain.CloneIntents(r.macros[t].Actions),
			}, true
		}
	}
	return domain.MacroMatch{}, false
}

// Lookup returns the actions of the longest trigger contained in text.
func (r *Registry) Lookup(text string) ([]domain.Intent, bool) {
	m, ok := r.Match(textutil.Canonical(text))
	if !ok {
		return nil, false
	}
	return m.Actions, true
}

// List returns every macro sorted by trigger.
func (r *Registry) List() []domain.Macro {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Macro, 0, len(r.macros))
	for _, m := range r.macros {
		out = append(out, m.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trigger < out[j].Trigger })
	return out
}

// Len returns the number of registered macros.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.macros)
}

func (r *Registry) reindex() {
	r.order = r.order[:0]
	for t := range r.macros {
		r.order = append(r.order, t)
	}
	sort.Slice(r.order, func(i, j int) bool {
		a, b := r.order[i], r.order[j]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
}
