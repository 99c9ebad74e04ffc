package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "mdx:"

// Store implements ports.MacroStore using one Redis hash per user.
// Hash fields are triggers, values are JSON-encoded macros.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(userID string) string {
	return s.prefix + "macros:" + userID
}

// Put stores the macro in the user's hash.
func (s *Store) Put(ctx context.Context, userID string, macro domain.Macro) error {
	data, err := json.Marshal(macro)
	if err != nil {
		return fmt.Errorf("failed to marshal macro: %w", err)
	}
	if err := s.client.HSet(ctx, s.key(userID), macro.Trigger, data).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves one macro.
func (s *Store) Get(ctx context.Context, userID, trigger string) (domain.Macro, error) {
	val, err := s.client.HGet(ctx, s.key(userID), trigger).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Macro{}, domain.ErrMacroNotFound
		}
		return domain.Macro{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var m domain.Macro
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return domain.Macro{}, fmt.Errorf("failed to unmarshal macro: %w", err)
	}
	return m, nil
}

// Delete removes one macro.
func (s *Store) Delete(ctx context.Context, userID, trigger string) error {
	return s.client.HDel(ctx, s.key(userID), trigger).Err()
}

// List returns every macro of the user sorted by trigger.
func (s *Store) List(ctx context.Context, userID string) ([]domain.Macro, error) {
	all, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list macros: %w", err)
	}

	macros := make([]domain.Macro, 0, len(all))
	for trigger, val := range all {
		var m domain.Macro
		if err := json.Unmarshal([]byte(val), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal macro %q: %w", trigger, err)
		}
		macros = append(macros, m)
	}
	sort.Slice(macros, func(i, j int) bool { return macros[i].Trigger < macros[j].Trigger })
	return macros, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client returns the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}
