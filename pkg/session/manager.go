package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/facet/internal/logging"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/model"
	"github.com/aretw0/facet/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates record access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	def       *model.Definition
	store     ports.Storage
	modelOpts []model.Option

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithModelOptions is applied to every model the Manager creates, after the storage.
func WithModelOptions(opts ...model.Option) Option {
	return func(m *Manager) {
		m.modelOpts = append(m.modelOpts, opts...)
	}
}

// NewManager creates a Manager for records of def kept in store.
// def must be persistent.
func NewManager(def *model.Definition, store ports.Storage, opts ...Option) (*Manager, error) {
	if def == nil || !def.Persistent {
		return nil, fmt.Errorf("session: definition must be persistent: %w", domain.ErrNoStorage)
	}
	m := &Manager{
		def:     def,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// New returns an unsaved model bound to the Manager's storage.
func (m *Manager) New(values map[string]any) (*model.Model, error) {
	return model.New(m.def, values, m.options()...)
}

// Create builds a model from values, validates it and stores it.
func (m *Manager) Create(ctx context.Context, values map[string]any) (*model.Model, error) {
	if _, ok := values[domain.IDAttribute]; ok {
		return nil, fmt.Errorf("session: %q is assigned by storage", domain.IDAttribute)
	}
	rec, err := m.New(values)
	if err != nil {
		return nil, err
	}
	if err := rec.Save(ctx); err != nil {
		rec.Destroy()
		return nil, err
	}
	m.logger.Debug("record created", "model", m.def.Name, "id", rec.ID())
	return rec, nil
}

// Load fetches an existing record.
func (m *Manager) Load(ctx context.Context, id string) (*model.Model, error) {
	var rec *model.Model
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		rec, err = m.fetch(ctx, id)
		return err
	})
	return rec, err
}

// Update fetches a record, applies fn and saves the result, all under the
// record's lock. Nothing is saved when fn fails.
func (m *Manager) Update(ctx context.Context, id string, fn func(*model.Model) error) (*model.Model, error) {
	var rec *model.Model
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		rec, err = m.fetch(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		return rec.Save(ctx)
	})
	return rec, err
}

// Preview applies values to a fresh copy of the record without saving it and
// reports which attributes would change.
func (m *Manager) Preview(ctx context.Context, id string, values map[string]any) (*model.Model, []string, error) {
	rec, err := m.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := rec.SetAll(values); err != nil {
		return nil, nil, err
	}
	if err := rec.Ready(ctx); err != nil {
		return nil, nil, err
	}
	return rec, rec.Changes(domain.DefaultBranch), nil
}

// Delete removes the record from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		rec, err := m.fetch(ctx, id)
		if err != nil {
			return err
		}
		return rec.Remove(ctx)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying storage.
func (m *Manager) Store() ports.Storage {
	return m.store
}

// Definition returns the definition of the managed records.
func (m *Manager) Definition() *model.Definition {
	return m.def
}

// WithLock executes a function while holding the lock for the record.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, m.def.Name+":"+id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"model", m.def.Name,
					"id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) fetch(ctx context.Context, id string) (*model.Model, error) {
	rec, err := m.New(map[string]any{domain.IDAttribute: id})
	if err != nil {
		return nil, err
	}
	if err := rec.Fetch(ctx); err != nil {
		rec.Destroy()
		return nil, err
	}
	return rec, nil
}

func (m *Manager) options() []model.Option {
	opts := make([]model.Option, 0, len(m.modelOpts)+1)
	opts = append(opts, model.WithStorage(m.store))
	return append(opts, m.modelOpts...)
}
