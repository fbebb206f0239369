package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/facet/pkg/adapters/memory"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/persistence/middleware"
	"github.com/aretw0/facet/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	id, err := secureStore.Insert(ctx, domain.Document{"secret": "my-secret-sauce"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// The wrapped storage only sees the envelope
	stored, err := underlyingStore.Find(ctx, id)
	if err != nil {
		t.Fatalf("Underlying find failed: %v", err)
	}
	if val, ok := stored["secret"]; ok {
		t.Fatalf("Expected secret to be hidden, found: %v", val)
	}
	if _, ok := stored[middleware.EnvelopeKey]; !ok {
		t.Fatal("Expected envelope field in document")
	}

	loaded, err := secureStore.Find(ctx, id)
	if err != nil {
		t.Fatalf("Find via middleware failed: %v", err)
	}
	if loaded["secret"] != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", loaded["secret"])
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	id, err := secureStoreOld.Insert(ctx, domain.Document{"data": "encrypted-with-old-key"})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Find(ctx, id)
	if err != nil {
		t.Fatalf("Find with rotated key failed: %v", err)
	}
	if loaded["data"] != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	loaded["data"] = "encrypted-with-new-key"
	if err := secureStoreNew.Update(ctx, id, loaded); err != nil {
		t.Fatalf("Update with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Find(ctx, id); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RefusesPlainDocuments(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	id, _ := underlyingStore.Insert(ctx, domain.Document{"plain": true})

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Find(ctx, id); err == nil {
		t.Error("Expected plain document to be refused")
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore())
	ports.RunStorageContract(t, secureStore)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
