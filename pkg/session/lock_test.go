package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/facet/pkg/adapters/memory"
	"github.com/aretw0/facet/pkg/model"
)

func TestManager_LockLifecycle(t *testing.T) {
	def, err := model.NewPersistentDefinition("doc")
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := NewManager(def, memory.NewStore())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("record-%d", i)
		_, _ = mgr.Load(ctx, id)
		_ = mgr.Delete(ctx, id)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
