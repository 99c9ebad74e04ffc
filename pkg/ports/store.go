package ports

import (
	"context"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// MacroStore defines the interface for persisting user macros.
// Macros are scoped by user ID and keyed by their normalized trigger.
type MacroStore interface {
	// Put stores the macro, replacing any macro with the same trigger.
	// Duplicate detection is the registry's job, not the store's.
	Put(ctx context.Context, userID string, macro domain.Macro) error

	// Get retrieves one macro.
	// Returns domain.ErrMacroNotFound if the trigger is not stored.
	Get(ctx context.Context, userID, trigger string) (domain.Macro, error)

	// Delete removes one macro. Deleting a missing trigger is not an error.
	Delete(ctx context.Context, userID, trigger string) error

	// List returns every macro of the user, sorted by trigger.
	List(ctx context.Context, userID string) ([]domain.Macro, error)
}
