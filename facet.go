package facet

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/facet/internal/logging"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/model"
	"github.com/aretw0/facet/pkg/ports"
	"github.com/aretw0/facet/pkg/registry"
	"github.com/aretw0/facet/pkg/schema"
	"github.com/aretw0/facet/pkg/session"
)

// Catalog is the high-level entry point of the library.
// It holds compiled model definitions together with the storage, hooks and
// logger every model created through it shares.
type Catalog struct {
	Name string

	defs          map[string]*model.Definition
	storage       ports.Storage
	registry      *registry.Registry
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	maxIterations int
}

// Option defines a functional option for configuring the Catalog.
type Option func(*Catalog)

// WithStorage enables persistence for persistent definitions.
func WithStorage(storage ports.Storage) Option {
	return func(c *Catalog) {
		c.storage = storage
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on every model.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Catalog) {
		c.hooks = hooks
	}
}

// WithRegistry resolves derive, validator and codec names used by schema files.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Catalog) {
		c.registry = r
	}
}

// WithMaxIterations bounds recalculation rounds per settle.
func WithMaxIterations(n int) Option {
	return func(c *Catalog) {
		c.maxIterations = n
	}
}

// Open reads and compiles a schema file.
func Open(schemaPath string, opts ...Option) (*Catalog, error) {
	if schemaPath == "" {
		return nil, fmt.Errorf("schema path is required")
	}
	c := newCatalog(opts)
	c.Name = strings.TrimSuffix(filepath.Base(schemaPath), filepath.Ext(schemaPath))
	c.logger = c.logger.With("catalog", c.Name)

	doc, err := schema.ParseFile(schemaPath)
	if err != nil {
		return nil, err
	}
	defs, err := schema.Compile(doc,
		schema.WithRegistry(c.registry),
		schema.WithModelOptions(c.modelOptions()...),
	)
	if err != nil {
		return nil, err
	}
	for _, name := range defs.Names() {
		def, _ := defs.Get(name)
		c.defs[name] = def
	}
	c.logger.Debug("schema compiled", "path", schemaPath, "models", len(c.defs))
	return c, nil
}

// NewCatalog wraps definitions built in Go, for example with pkg/dsl.
func NewCatalog(defs []*model.Definition, opts ...Option) (*Catalog, error) {
	c := newCatalog(opts)
	for _, def := range defs {
		if def == nil {
			continue
		}
		if _, dup := c.defs[def.Name]; dup {
			return nil, fmt.Errorf("duplicate model %q", def.Name)
		}
		c.defs[def.Name] = def
	}
	return c, nil
}

func newCatalog(opts []Option) *Catalog {
	c := &Catalog{defs: make(map[string]*model.Definition)}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.registry == nil {
		c.registry = registry.NewRegistry()
	}
	return c
}

// Definition returns the named model definition.
func (c *Catalog) Definition(name string) (*model.Definition, error) {
	def, ok := c.defs[name]
	if !ok {
		return nil, fmt.Errorf("model %q: %w", name, ErrUnknownModel)
	}
	return def, nil
}

// Names returns the model names in lexical order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a model instance of the named definition.
func (c *Catalog) New(name string, values map[string]any) (*model.Model, error) {
	def, err := c.Definition(name)
	if err != nil {
		return nil, err
	}
	return model.New(def, values, c.modelOptionsFor(def)...)
}

// Manager returns a session manager for a persistent model. A nil locker
// keeps locking in-process.
func (c *Catalog) Manager(name string, locker ports.DistributedLocker) (*session.Manager, error) {
	def, err := c.Definition(name)
	if err != nil {
		return nil, err
	}
	if c.storage == nil {
		return nil, fmt.Errorf("model %q: %w", name, domain.ErrNoStorage)
	}
	opts := []session.Option{
		session.WithLogger(c.logger),
		session.WithModelOptions(c.modelOptions()...),
	}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	return session.NewManager(def, c.storage, opts...)
}

// Storage returns the configured storage, or nil.
func (c *Catalog) Storage() ports.Storage { return c.storage }

// Logger returns the catalog logger.
func (c *Catalog) Logger() *slog.Logger { return c.logger }

func (c *Catalog) modelOptions() []model.Option {
	return []model.Option{
		model.WithLogger(c.logger),
		model.WithLifecycleHooks(c.hooks),
		model.WithMaxIterations(c.maxIterations),
	}
}

func (c *Catalog) modelOptionsFor(def *model.Definition) []model.Option {
	opts := c.modelOptions()
	if def.Persistent && c.storage != nil {
		opts = append(opts, model.WithStorage(c.storage))
	}
	return opts
}
