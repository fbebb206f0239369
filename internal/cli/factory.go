package cli

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/facet"
	"github.com/aretw0/facet/pkg/adapters/file"
	"github.com/aretw0/facet/pkg/adapters/memory"
	"github.com/aretw0/facet/pkg/adapters/redis"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/observability"
	"github.com/aretw0/facet/pkg/persistence/middleware"
	"github.com/aretw0/facet/pkg/ports"
)

// Store backends accepted by Options.Store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Options gathers the settings shared by the commands, usually resolved
// from flags, FACET_* variables and the config file.
type Options struct {
	Schema    string
	LogLevel  string
	LogFormat string

	Store         string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// EncryptionKey is a base64 AES-256 key. Old keys go to FallbackKeys.
	EncryptionKey string
	FallbackKeys  []string
	// PIIFields are regular expressions of field names masked before storage.
	PIIFields []string

	Metrics bool
}

// Environment is everything a command needs to work on a schema.
type Environment struct {
	Catalog  *facet.Catalog
	Storage  ports.Storage
	Locker   ports.DistributedLocker
	Logger   *slog.Logger
	Registry *prometheus.Registry

	closers []func() error
}

// Open builds the logger, storage stack, metrics and catalog.
func Open(opts Options) (*Environment, error) {
	logger, err := CreateLogger(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return nil, err
	}
	env := &Environment{Logger: logger}

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(logger)}
	if opts.Metrics {
		env.Registry = prometheus.NewRegistry()
		env.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(env.Registry)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, metrics.Hooks())
	}

	if opts.Store != "" {
		if err := env.openStorage(opts); err != nil {
			return nil, err
		}
	}

	catalogOpts := []facet.Option{
		facet.WithLogger(logger),
		facet.WithLifecycleHooks(domain.Combine(hooks...)),
	}
	if env.Storage != nil {
		catalogOpts = append(catalogOpts, facet.WithStorage(env.Storage))
	}
	env.Catalog, err = facet.Open(opts.Schema, catalogOpts...)
	if err != nil {
		_ = env.Close()
		return nil, err
	}
	return env, nil
}

func (env *Environment) openStorage(opts Options) error {
	var store ports.Storage
	switch strings.ToLower(opts.Store) {
	case StoreMemory:
		store = memory.NewStore()
	case StoreFile:
		store = file.New(opts.Dir)
	case StoreRedis:
		var redisOpts []redis.Option
		if opts.RedisPrefix != "" {
			redisOpts = append(redisOpts, redis.WithPrefix(opts.RedisPrefix+":record:"))
		}
		rs := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, redisOpts...)
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = "facet"
		}
		env.Locker = redis.NewLocker(rs.Client(), prefix+":lock:")
		env.closers = append(env.closers, rs.Close)
		store = rs
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", opts.Store, StoreMemory, StoreFile, StoreRedis)
	}

	mws, err := storageMiddlewares(opts)
	if err != nil {
		return err
	}
	env.Storage = middleware.Chain(store, mws...)
	env.Logger.Debug("storage ready", "store", opts.Store, "middlewares", len(mws))
	return nil
}

// storageMiddlewares masks before it encrypts, so the outermost layer is PII.
func storageMiddlewares(opts Options) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.PIIFields) > 0 {
		for _, pattern := range opts.PIIFields {
			if _, err := regexp.Compile(pattern); err != nil {
				return nil, fmt.Errorf("pii field %q: %w", pattern, err)
			}
		}
		mws = append(mws, middleware.NewPIIMiddleware(opts.PIIFields))
	}
	if opts.EncryptionKey != "" {
		active, err := decodeKey(opts.EncryptionKey)
		if err != nil {
			return nil, err
		}
		cfg := middleware.EncryptionConfig{ActiveKey: active}
		for _, raw := range opts.FallbackKeys {
			key, err := decodeKey(raw)
			if err != nil {
				return nil, err
			}
			cfg.FallbackKeys = append(cfg.FallbackKeys, key)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(cfg))
	}
	return mws, nil
}

func decodeKey(raw string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Close releases backend connections.
func (env *Environment) Close() error {
	var first error
	for _, c := range env.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	env.closers = nil
	return first
}
