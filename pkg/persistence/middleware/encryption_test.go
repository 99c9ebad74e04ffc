package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/memory"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func mustEncryption(t *testing.T, cfg middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw
}

func roundsMacro() domain.Macro {
	return domain.Macro{
		Trigger:   "bed twelve",
		Actions:   []domain.Intent{domain.LoadPatient{Identifier: "12724066"}, domain.ShowSection{Section: domain.SectionVitals}},
		CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := mustEncryption(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	ctx := context.Background()
	original := roundsMacro()

	// 1. Put
	if err := secureStore.Put(ctx, "dr-a", original); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// 2. Verify underlying store directly (should be sealed)
	stored, err := underlyingStore.Get(ctx, "dr-a", original.Trigger)
	if err != nil {
		t.Fatalf("Underlying get failed: %v", err)
	}
	if len(stored.Actions) != 1 {
		t.Fatalf("Expected a single sealed action, got %v", stored.Actions)
	}
	raw := stored.Actions[0].(domain.Unknown).RawText
	if !strings.HasPrefix(raw, "__encrypted__:") {
		t.Fatalf("Expected sealed payload, got %q", raw)
	}
	if strings.Contains(raw, "12724066") {
		t.Fatal("Patient identifier leaked into the stored macro")
	}

	// 3. Get and List via middleware (should be opened)
	loaded, err := secureStore.Get(ctx, "dr-a", original.Trigger)
	if err != nil {
		t.Fatalf("Get via middleware failed: %v", err)
	}
	if loaded.Trigger != original.Trigger || !loaded.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("Unexpected macro header: %+v", loaded)
	}
	if len(loaded.Actions) != 2 || loaded.Actions[0] != original.Actions[0] || loaded.Actions[1] != original.Actions[1] {
		t.Errorf("Expected %v, got %v", original.Actions, loaded.Actions)
	}

	list, err := secureStore.List(ctx, "dr-a")
	if err != nil {
		t.Fatalf("List via middleware failed: %v", err)
	}
	if len(list) != 1 || len(list[0].Actions) != 2 {
		t.Errorf("Unexpected list: %v", list)
	}

	// 4. Delete passes through
	if err := secureStore.Delete(ctx, "dr-a", original.Trigger); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := underlyingStore.Get(ctx, "dr-a", original.Trigger); !errors.Is(err, domain.ErrMacroNotFound) {
		t.Errorf("Expected ErrMacroNotFound, got %v", err)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := mustEncryption(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	original := roundsMacro()

	// 1. Put with OLD key
	if err := secureStoreOld.Put(ctx, "dr-a", original); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// 2. Get with NEW key (Active) + OLD key (Fallback)
	secureStoreNew := mustEncryption(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Get(ctx, "dr-a", original.Trigger)
	if err != nil {
		t.Fatalf("Get with rotated key failed: %v", err)
	}
	if len(loaded.Actions) != 2 {
		t.Errorf("Decryption with fallback key failed: %v", loaded.Actions)
	}

	// 3. Put again (should now seal with NEW key)
	if err := secureStoreNew.Put(ctx, "dr-a", loaded); err != nil {
		t.Fatalf("Put with new key failed: %v", err)
	}

	// 4. Verify we CANNOT read with just OLD key anymore
	if _, err := secureStoreOld.Get(ctx, "dr-a", original.Trigger); err == nil {
		t.Error("Expected failure when reading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RefusesPlainMacros(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Put(ctx, "dr-a", roundsMacro()); err != nil {
		t.Fatal(err)
	}

	secureStore := mustEncryption(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.List(ctx, "dr-a"); !errors.Is(err, middleware.ErrNotEncrypted) {
		t.Errorf("Expected ErrNotEncrypted, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key) + "\n")
	if err != nil {
		t.Fatalf("DecodeKey failed: %v", err)
	}
	if string(got) != string(key) {
		t.Error("Decoded key differs")
	}

	if _, err := middleware.DecodeKey("not base64!"); err == nil {
		t.Error("Expected error for invalid base64")
	}
	if _, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short"))); err == nil {
		t.Error("Expected error for short key")
	}
}
