// Package trust implements the local quorum trust registry.
//
// Each turret operator maintains a TOML trust document listing the peer
// turrets this node considers part of its quorum. The document is read once
// at process start; reloading requires a restart or an explicit re-init.
//
// If the document cannot be read or parsed, every trust query fails closed:
// Load returns a Config-kind error and no Registry is ever constructed with
// partial contents.
package trust

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/stellar/go/strkey"

	"github.com/stellar/stellar-turrets/turret"
)

// Entry is one trusted turret in the trust document. Fields beyond the
// public key are descriptive only; the protocol ignores them.
type Entry struct {
	PublicKey  string `toml:"PUBLIC_KEY"`
	HomeDomain string `toml:"HOME_DOMAIN"`
	Name       string `toml:"NAME"`
}

type document struct {
	Turrets []Entry `toml:"TURRETS"`
}

// Registry answers membership queries against the configured trust set.
// Read-only after construction; safe for concurrent use.
type Registry struct {
	keys map[string]struct{}
}

// Load reads and parses the trust document at path. Any read or parse
// failure, and any entry without a valid public key, is a Config-kind error.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, turret.Wrap(turret.KindConfig, fmt.Sprintf("trust document unreadable (%s)", path), err)
	}
	return Parse(data)
}

// Parse builds a Registry from raw trust document bytes.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, turret.Wrap(turret.KindConfig, "trust document parse failed", err)
	}
	keys := make(map[string]struct{}, len(doc.Turrets))
	for i, e := range doc.Turrets {
		if !strkey.IsValidEd25519PublicKey(e.PublicKey) {
			return nil, turret.New(turret.KindConfig,
				fmt.Sprintf("trust document entry %d has an invalid PUBLIC_KEY", i))
		}
		keys[e.PublicKey] = struct{}{}
	}
	return &Registry{keys: keys}, nil
}

// IsTrusted reports whether the turret with the given public key is part of
// the local quorum. Lookup is an exact string match.
func (r *Registry) IsTrusted(turretPublicKey string) bool {
	if r == nil {
		return false
	}
	_, ok := r.keys[turretPublicKey]
	return ok
}

// Len returns the number of configured trust entries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}
