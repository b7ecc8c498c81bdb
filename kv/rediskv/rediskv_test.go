package rediskv_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/stellar/stellar-turrets/kv"
	"github.com/stellar/stellar-turrets/kv/rediskv"
	"github.com/stellar/stellar-turrets/kv/testkit"
)

func TestRedisKVConformance(t *testing.T) {
	testkit.RunStoreConformance(t, func(t *testing.T) kv.Store {
		mr := miniredis.RunT(t)
		client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return rediskv.NewFromClient(client)
	})
}

func TestRedisKVPrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	functions := rediskv.NewFromClient(client, rediskv.WithPrefix("txf:"))
	allowed := rediskv.NewFromClient(client, rediskv.WithPrefix("allowed:"))

	if err := functions.PutIfAbsent(ctx, "h1", []byte("code")); err != nil {
		t.Fatalf("PutIfAbsent failed: %v", err)
	}
	ok, err := allowed.Has(ctx, "h1")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if ok {
		t.Fatalf("allow-list namespace sees function key")
	}
}
