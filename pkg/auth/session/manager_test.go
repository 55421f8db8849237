package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeStore) AccessSessionKey(accessID string) string {
	return "ss:session:access:" + accessID
}

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestGenerateAndRotate(t *testing.T) {
	ctx := context.Background()
	mgr, store := newTestManager()

	accessID := NewAccessID()
	token, err := mgr.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	newAccessID, newToken, err := mgr.Rotate(ctx, accessID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newAccessID == accessID {
		t.Error("expected a fresh access id")
	}
	if newToken == token {
		t.Error("expected a fresh refresh token")
	}

	if _, ok := store.values[store.AccessSessionKey(accessID)]; ok {
		t.Error("old session should be deleted after rotation")
	}
}

func TestRotateRejectsWrongToken(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	accessID := NewAccessID()
	if _, err := mgr.Generate(ctx, accessID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, _, err := mgr.Rotate(ctx, accessID, "forged-token"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRotateRejectsUnknownAccessID(t *testing.T) {
	mgr, _ := newTestManager()
	if _, _, err := mgr.Rotate(context.Background(), "missing", "whatever"); err != ErrInvalidRefreshToken {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRevokeAndHasSession(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager()

	accessID := NewAccessID()
	if _, err := mgr.Generate(ctx, accessID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	active, err := mgr.HasSession(ctx, accessID)
	if err != nil || !active {
		t.Fatalf("expected active session, got %v %v", active, err)
	}

	if err := mgr.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	active, err = mgr.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if active {
		t.Error("expected session to be gone after revoke")
	}
}
