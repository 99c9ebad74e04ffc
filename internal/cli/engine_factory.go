package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alicebob/miniredis/v2"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/config"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/file"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/memory"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/process"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/redis"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/gesture"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/persistence/middleware"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/session"
)

// Backend is the macro persistence selected by the configuration.
type Backend struct {
	Store ports.MacroStore
	// Locker is set for the redis backend only.
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend connects the configured macro store. The special redis address
// "embedded" starts an in-process miniredis for demos. Redaction and
// encryption middleware wrap the store when configured.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	b, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	mws, err := storeMiddleware(cfg)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	if len(mws) > 0 {
		logger.Debug("Macro store middleware enabled", "redact", len(cfg.Redact) > 0, "encrypted", cfg.EncryptionKey != "")
		b.Store = middleware.Chain(b.Store, mws...)
	}
	return b, nil
}

func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("%w: encryption key: %v", config.ErrInvalidConfig, err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	switch cfg.Backend {
	case config.StoreMemory, "":
		return &Backend{Store: memory.NewStore()}, nil
	case config.StoreFile:
		logger.Debug("Using file macro store", "path", cfg.Path)
		return &Backend{Store: file.New(cfg.Path)}, nil
	case config.StoreRedis:
		addr := cfg.Redis.Addr
		var embedded *miniredis.Miniredis
		if addr == "embedded" {
			var err error
			if embedded, err = miniredis.Run(); err != nil {
				return nil, fmt.Errorf("failed to start embedded redis: %w", err)
			}
			addr = embedded.Addr()
		}
		store := redis.New(addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix))
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			if embedded != nil {
				embedded.Close()
			}
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
		}
		logger.Debug("Using redis macro store", "addr", addr)
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), cfg.Redis.Prefix),
			close: func() error {
				err := store.Close()
				if embedded != nil {
					embedded.Close()
				}
				return err
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.Backend)
	}
}

// EngineOptions translates the configuration into engine options.
func EngineOptions(cfg config.Config, store ports.MacroStore, logger *slog.Logger, hooks domain.LifecycleHooks) []mdxvision.Option {
	gestureOpts := []gesture.Option{
		gesture.WithNodConfig(cfg.Gesture.Nod),
		gesture.WithShakeConfig(cfg.Gesture.Shake),
	}
	if cfg.Gesture.Disabled {
		gestureOpts = append(gestureOpts, gesture.WithDisabled())
	}

	return []mdxvision.Option{
		mdxvision.WithLogger(logger),
		mdxvision.WithLifecycleHooks(hooks),
		mdxvision.WithMacroStore(store),
		mdxvision.WithUserID(cfg.User),
		mdxvision.WithLanguage(cfg.Language),
		mdxvision.WithRequireWakePhrase(cfg.Wake.Required),
		mdxvision.WithNormalizerOptions(normalize.WithExtraWakePhrases(cfg.Wake.Phrases...)),
		mdxvision.WithGestureOptions(gestureOpts...),
		mdxvision.WithExecutorOptions(
			executor.WithStepDelay(cfg.Executor.StepDelay),
			executor.WithPostLoadDelay(cfg.Executor.PostLoadDelay),
			executor.WithContinueOnError(cfg.Executor.ContinueOnError),
		),
	}
}

// NewEngine builds one engine from the configuration.
func NewEngine(ctx context.Context, cfg config.Config, store ports.MacroStore, logger *slog.Logger, hooks domain.LifecycleHooks) (*mdxvision.Engine, error) {
	eng, err := mdxvision.New(ctx, EngineOptions(cfg, store, logger, hooks)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}

// SessionFactory builds per-device engines sharing one store. Every device
// session is labelled with its ID and uses the configured user's macros.
func SessionFactory(cfg config.Config, store ports.MacroStore, logger *slog.Logger, hooks domain.LifecycleHooks) session.Factory {
	return func(ctx context.Context, sessionID string) (*mdxvision.Engine, error) {
		opts := append(EngineOptions(cfg, store, logger, hooks), mdxvision.WithSessionID(sessionID))
		return mdxvision.New(ctx, opts...)
	}
}

// ExecBindings loads the configured bindings file and returns a wrapper that
// routes its intent kinds to external commands. Without a file the wrapper
// returns the bindings unchanged.
func ExecBindings(cfg config.ExecutorConfig, out io.Writer, logger *slog.Logger) (func(executor.Bindings) executor.Bindings, error) {
	if cfg.BindingsFile == "" {
		return func(b executor.Bindings) executor.Bindings { return b }, nil
	}
	bound, err := process.LoadBindings(cfg.BindingsFile)
	if err != nil {
		return nil, err
	}
	runner := process.NewRunner(process.WithRegistry(bound), process.WithOutput(out))
	logger.Debug("External intent bindings loaded", "file", cfg.BindingsFile, "kinds", runner.Kinds())
	return runner.Bindings, nil
}
