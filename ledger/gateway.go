// Package ledger is the read/write façade over the external Stellar network.
//
// Every operation is network-bound and reports failures through the shared
// taxonomy: transient transport or Horizon failures surface as Unavailable
// (safe to retry), missing resources as NotFound. Nothing in this package
// holds state across calls.
package ledger

import "context"

// Signer is one (public key, weight) pair on a ledger account.
type Signer struct {
	Key    string
	Weight int32
}

// Thresholds mirrors the account's operation thresholds.
type Thresholds struct {
	Low    int32
	Medium int32
	High   int32
}

// Account is the gateway's view of a ledger account: enough state for fee
// verification and the heal protocol, nothing more.
type Account struct {
	ID         string
	Sequence   int64
	HomeDomain string
	Thresholds Thresholds
	Signers    []Signer
	// Data holds the account's decoded data entries. The heal protocol
	// repurposes `turret.<signerKey>` entries as the owner directory.
	Data map[string][]byte
}

// SignerWeight returns the weight of the given signer key, if present.
func (a *Account) SignerWeight(key string) (int32, bool) {
	for _, s := range a.Signers {
		if s.Key == key {
			return s.Weight, true
		}
	}
	return 0, false
}

// HasSigner reports whether key is currently a signer on the account.
func (a *Account) HasSigner(key string) bool {
	_, ok := a.SignerWeight(key)
	return ok
}

// Gateway is the ledger boundary used by the TxFunction store and the heal
// engine.
type Gateway interface {
	// GetAccount fetches current account state by public key.
	GetAccount(ctx context.Context, accountID string) (*Account, error)

	// TransactionExists reports whether a transaction hash is already on the
	// ledger. Used to detect double-submission of a fee payment.
	TransactionExists(ctx context.Context, hash string) (bool, error)

	// Submit sends a signed envelope to the ledger and returns its hash.
	Submit(ctx context.Context, envelopeXDR string) (string, error)

	// ResolveTxFunctionSigner asks a peer turret's publishing endpoint which
	// signer it assigns to txFunctionHash. Any network or shape failure
	// resolves to "" (unknown), never to a hard error, so the heal engine can
	// produce a precise "unable to find contract on new turret" condition.
	ResolveTxFunctionSigner(ctx context.Context, turretHomeDomain, txFunctionHash string) string
}
