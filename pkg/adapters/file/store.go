package file

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/spf13/afero"
)

// Store implements ports.MacroStore on a filesystem.
// Each user's macros live in one JSON document under BasePath.
type Store struct {
	BasePath string

	fs afero.Fs
	mu sync.Mutex
}

type document struct {
	UserID string         `json:"user_id"`
	Macros []domain.Macro `json:"macros"`
}

// New creates a new Store on the OS filesystem.
// If basePath is empty, it defaults to ".mdx/macros".
func New(basePath string) *Store {
	return NewWithFs(afero.NewOsFs(), basePath)
}

// NewWithFs creates a Store on the given filesystem (e.g. afero.NewMemMapFs in tests).
func NewWithFs(fs afero.Fs, basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".mdx", "macros")
	}
	return &Store{BasePath: basePath, fs: fs}
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.BasePath, url.PathEscape(userID)+".json")
}

// Put stores the macro and rewrites the user's document atomically.
func (s *Store) Put(ctx context.Context, userID string, macro domain.Macro) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(userID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range doc.Macros {
		if doc.Macros[i].Trigger == macro.Trigger {
			doc.Macros[i] = macro
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Macros = append(doc.Macros, macro)
	}
	return s.write(userID, doc)
}

// Get retrieves one macro from the user's document.
func (s *Store) Get(ctx context.Context, userID, trigger string) (domain.Macro, error) {
	if userID == "" {
		return domain.Macro{}, fmt.Errorf("userID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(userID)
	if err != nil {
		return domain.Macro{}, err
	}
	for _, m := range doc.Macros {
		if m.Trigger == trigger {
			return m, nil
		}
	}
	return domain.Macro{}, domain.ErrMacroNotFound
}

// Delete removes one macro. The document is removed with its last macro.
func (s *Store) Delete(ctx context.Context, userID, trigger string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(userID)
	if err != nil {
		return err
	}
	kept := doc.Macros[:0]
	for _, m := range doc.Macros {
		if m.Trigger != trigger {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		err := s.fs.Remove(s.path(userID))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete macro file: %w", err)
		}
		return nil
	}
	doc.Macros = kept
	return s.write(userID, doc)
}

// List returns the user's macros sorted by trigger.
func (s *Store) List(ctx context.Context, userID string) ([]domain.Macro, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(userID)
	if err != nil {
		return nil, err
	}
	return doc.Macros, nil
}

func (s *Store) read(userID string) (*document, error) {
	data, err := afero.ReadFile(s.fs, s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return &document{UserID: userID, Macros: []domain.Macro{}}, nil
		}
		return nil, fmt.Errorf("failed to read macro file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal macro file: %w", err)
	}
	if doc.Macros == nil {
		doc.Macros = []domain.Macro{}
	}
	sort.Slice(doc.Macros, func(i, j int) bool { return doc.Macros[i].Trigger < doc.Macros[j].Trigger })
	return &doc, nil
}

// write persists the document atomically.
// It writes to a temporary file first, syncs it, and then renames it to the destination.
func (s *Store) write(userID string, doc *document) error {
	if err := s.fs.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure macro directory: %w", err)
	}

	sort.Slice(doc.Macros, func(i, j int) bool { return doc.Macros[i].Trigger < doc.Macros[j].Trigger })
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal macros: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := afero.TempFile(s.fs, s.BasePath, "tmp-macros-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = s.fs.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows refuses to rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(userID)
	if _, err := s.fs.Stat(destPath); err == nil {
		if err := s.fs.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing macro file for overwrite: %w", err)
		}
	}
	if err := s.fs.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
