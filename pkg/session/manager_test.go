package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/pkg/adapters/memory"
	"github.com/aretw0/facet/pkg/attribute"
	"github.com/aretw0/facet/pkg/codec"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/model"
	"github.com/aretw0/facet/pkg/ports"
	"github.com/aretw0/facet/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Find(ctx context.Context, id string) (domain.Document, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Find(ctx, id)
}

func (s SlowStore) Update(ctx context.Context, id string, doc domain.Document) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Update(ctx, id, doc)
}

func counterDefinition(t *testing.T) *model.Definition {
	t.Helper()
	def, err := model.NewPersistentDefinition("counter",
		model.AttributeSpec{Name: "count", Kind: attribute.Kind{Name: "number", Codec: codec.Number(), Default: 0.0}},
		model.AttributeSpec{Name: "label", Kind: attribute.Kind{Name: "string", Codec: codec.String(), Validate: func(v any) string {
			if v == "" {
				return "must not be empty"
			}
			return ""
		}}},
	)
	require.NoError(t, err)
	return def
}

func newManager(t *testing.T, store ports.Storage, opts ...session.Option) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(counterDefinition(t), store, opts...)
	require.NoError(t, err)
	return mgr
}

func TestNewManager_RequiresPersistentDefinition(t *testing.T) {
	def, err := model.NewDefinition("plain")
	require.NoError(t, err)
	_, err = session.NewManager(def, memory.NewStore())
	assert.ErrorIs(t, err, domain.ErrNoStorage)
}

func TestManager_CreateLoad(t *testing.T) {
	mgr := newManager(t, memory.NewStore())
	ctx := context.Background()

	rec, err := mgr.Create(ctx, map[string]any{"count": 2, "label": "a"})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID())
	assert.False(t, rec.IsChanged(""))

	loaded, err := mgr.Load(ctx, rec.ID())
	require.NoError(t, err)
	v, _ := loaded.Get("count")
	assert.Equal(t, 2.0, v)
	assert.False(t, loaded.IsChanged(""), "fetched state is the baseline")

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID()}, ids)
}

func TestManager_CreateRejectsIDAndInvalid(t *testing.T) {
	mgr := newManager(t, memory.NewStore())
	ctx := context.Background()

	_, err := mgr.Create(ctx, map[string]any{"id": "x"})
	assert.Error(t, err)

	_, err = mgr.Create(ctx, map[string]any{"label": ""})
	var verrs *domain.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	ids, _ := mgr.List(ctx)
	assert.Empty(t, ids)
}

func TestManager_LoadMissing(t *testing.T) {
	mgr := newManager(t, memory.NewStore())
	_, err := mgr.Load(context.Background(), "nope")
	assert.True(t, model.IsNotFound(err))
}

func TestManager_Locking(t *testing.T) {
	mgr := newManager(t, SlowStore{memory.NewStore()})
	ctx := context.Background()

	rec, err := mgr.Create(ctx, map[string]any{"count": 0})
	require.NoError(t, err)
	id := rec.ID()

	var wg sync.WaitGroup
	concurrentWrites := 10

	// Read-modify-write without locking would lose updates.
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Update(ctx, id, func(m *model.Model) error {
				v, err := m.Get("count")
				if err != nil {
					return err
				}
				return m.Set("count", v.(float64)+1)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := mgr.Load(ctx, id)
	require.NoError(t, err)
	v, _ := final.Get("count")
	assert.Equal(t, float64(concurrentWrites), v)
}

func TestManager_UpdateFailureDoesNotSave(t *testing.T) {
	mgr := newManager(t, memory.NewStore())
	ctx := context.Background()
	rec, err := mgr.Create(ctx, map[string]any{"count": 1})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = mgr.Update(ctx, rec.ID(), func(m *model.Model) error {
		_ = m.Set("count", 99)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = mgr.Update(ctx, rec.ID(), func(m *model.Model) error {
		return m.Set("label", "")
	})
	var verrs *domain.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	loaded, _ := mgr.Load(ctx, rec.ID())
	v, _ := loaded.Get("count")
	assert.Equal(t, 1.0, v)
}

func TestManager_Preview(t *testing.T) {
	mgr := newManager(t, memory.NewStore())
	ctx := context.Background()
	rec, err := mgr.Create(ctx, map[string]any{"count": 1, "label": "a"})
	require.NoError(t, err)

	preview, changes, err := mgr.Preview(ctx, rec.ID(), map[string]any{"count": 5, "label": "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"count"}, changes)
	v, _ := preview.Get("count")
	assert.Equal(t, 5.0, v)

	loaded, _ := mgr.Load(ctx, rec.ID())
	v, _ = loaded.Get("count")
	assert.Equal(t, 1.0, v, "preview never saves")
}

func TestManager_Delete(t *testing.T) {
	mgr := newManager(t, memory.NewStore())
	ctx := context.Background()
	rec, err := mgr.Create(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(ctx, rec.ID()))
	_, err = mgr.Load(ctx, rec.ID())
	assert.True(t, model.IsNotFound(err))
	assert.True(t, model.IsNotFound(mgr.Delete(ctx, rec.ID())))
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	ttl  time.Duration
	err  error
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	l.ttl = ttl
	return func(context.Context) error { return errors.New("already expired") }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := newManager(t, memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	rec, err := mgr.Create(ctx, nil)
	require.NoError(t, err)
	_, err = mgr.Load(ctx, rec.ID())
	require.NoError(t, err, "unlock failures are only logged")

	assert.Equal(t, []string{"counter:" + rec.ID()}, locker.keys)
	assert.Equal(t, time.Second, locker.ttl)

	locker.err = errors.New("contended")
	_, err = mgr.Load(ctx, rec.ID())
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}
