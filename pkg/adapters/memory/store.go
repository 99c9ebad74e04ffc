package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// Store implements ports.MacroStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]map[string]domain.Macro
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]map[string]domain.Macro),
	}
}

// Put stores a deep copy of the macro.
func (s *Store) Put(ctx context.Context, userID string, macro domain.Macro) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data[userID]
	if !ok {
		user = make(map[string]domain.Macro)
		s.data[userID] = user
	}
	user[macro.Trigger] = macro.Clone()
	return nil
}

// Get returns a copy so callers can't mutate the stored actions.
func (s *Store) Get(ctx context.Context, userID, trigger string) (domain.Macro, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[userID][trigger]
	if !ok {
		return domain.Macro{}, domain.ErrMacroNotFound
	}
	return m.Clone(), nil
}

// Delete removes the macro.
func (s *Store) Delete(ctx context.Context, userID, trigger string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data[userID], trigger)
	if len(s.data[userID]) == 0 {
		delete(s.data, userID)
	}
	return nil
}

// List returns the user's macros sorted by trigger.
func (s *Store) List(ctx context.Context, userID string) ([]domain.Macro, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	macros := make([]domain.Macro, 0, len(s.data[userID]))
	for _, m := range s.data[userID] {
		macros = append(macros, m.Clone())
	}
	sort.Slice(macros, func(i, j int) bool { return macros[i].Trigger < macros[j].Trigger })
	return macros, nil
}
