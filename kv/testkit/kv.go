// Package testkit runs the kv.Store conformance suite against a backend.
package testkit

import (
	"bytes"
	"context"
	"testing"

	"github.com/stellar/stellar-turrets/kv"
)

// NewStore constructs a fresh, empty Store instance for a test.
// The returned Store MUST be isolated from other tests.
type NewStore func(t *testing.T) kv.Store

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte("turret function bytes")

		if err := s.PutIfAbsent(ctx, "k1", want); err != nil {
			t.Fatalf("PutIfAbsent failed: %v", err)
		}
		got, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch: got %q want %q", got, want)
		}
	})

	t.Run("PutIfAbsentRejectsSecondWrite", func(t *testing.T) {
		s := newStore(t)
		if err := s.PutIfAbsent(ctx, "k1", []byte("first")); err != nil {
			t.Fatalf("PutIfAbsent(1) failed: %v", err)
		}
		err := s.PutIfAbsent(ctx, "k1", []byte("second"))
		if !kv.IsExists(err) {
			t.Fatalf("PutIfAbsent(2): got err=%v want ErrExists", err)
		}
		got, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "first" {
			t.Fatalf("stored value mutated: got %q", got)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		ok, err := s.Has(ctx, "missing")
		if err != nil {
			t.Fatalf("Has failed: %v", err)
		}
		if ok {
			t.Fatalf("Has returned true for missing key")
		}
		if _, err := s.Get(ctx, "missing"); !kv.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if err := s.PutIfAbsent(ctx, "missing", []byte("x")); err != nil {
			t.Fatalf("PutIfAbsent failed: %v", err)
		}
		ok, err = s.Has(ctx, "missing")
		if err != nil {
			t.Fatalf("Has failed: %v", err)
		}
		if !ok {
			t.Fatalf("Has returned false after PutIfAbsent")
		}
	})

	t.Run("DeleteMakesKeyAbsent", func(t *testing.T) {
		s := newStore(t)
		if err := s.PutIfAbsent(ctx, "k1", []byte("x")); err != nil {
			t.Fatalf("PutIfAbsent failed: %v", err)
		}
		if err := s.Delete(ctx, "k1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := s.Get(ctx, "k1"); !kv.IsNotFound(err) {
			t.Fatalf("Get after Delete: got err=%v want ErrNotFound", err)
		}
		// Key is writable again after deletion.
		if err := s.PutIfAbsent(ctx, "k1", []byte("y")); err != nil {
			t.Fatalf("PutIfAbsent after Delete failed: %v", err)
		}
	})
}
