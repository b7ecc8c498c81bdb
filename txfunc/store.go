// Package txfunc implements the content-addressed TxFunction store.
//
// Each uploaded function is identified by the hex sha256 digest of its code
// concatenated with its optional fields blob, and is bound at upload time to
// a freshly generated dedicated signer keypair. The store exclusively owns
// the digest→function+signer-secret mapping; the secret never leaves this
// package except as a detached signature byte string.
package txfunc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/stellar/go/amount"
	"github.com/stellar/go/keypair"

	"github.com/stellar/stellar-turrets/kv"
	"github.com/stellar/stellar-turrets/ledger"
	"github.com/stellar/stellar-turrets/turret"
)

// Config carries the store's slice of the turret configuration.
type Config struct {
	NetworkPassphrase string
	TurretAddress     string
	UploadDivisor     int64
	// Restricted enables the allow-list gate (public network mode).
	Restricted bool
}

// Store persists TxFunctions in an opaque key-value backend and verifies
// upload fees against the ledger.
type Store struct {
	functions kv.Store
	allowed   kv.Store
	gw        ledger.Gateway
	cfg       Config
}

// New wires a store over its function and allow-list backends.
func New(functions, allowed kv.Store, gw ledger.Gateway, cfg Config) *Store {
	return &Store{functions: functions, allowed: allowed, gw: gw, cfg: cfg}
}

// Upload is the successful result of storing a TxFunction.
type Upload struct {
	Hash            string `json:"hash"`
	SignerPublicKey string `json:"signer"`
}

// Details is the published view of a stored TxFunction. The signer secret is
// deliberately absent.
type Details struct {
	Hash            string `json:"hash"`
	SignerPublicKey string `json:"signer"`
	Cost            string `json:"cost"`
	PaymentHash     string `json:"payment"`
	CodeLength      int    `json:"length"`
}

// record is the durable shape stored under the digest.
type record struct {
	Code   []byte   `json:"code"`
	Fields []byte   `json:"fields,omitempty"`
	Meta   metadata `json:"meta"`
}

type metadata struct {
	Cost            string `json:"cost"`
	PaymentHash     string `json:"paymentHash"`
	CodeLength      int    `json:"codeLength"`
	SignerSecret    string `json:"signerSecret"`
	SignerPublicKey string `json:"signerPublicKey"`
}

// Digest returns the content address of a function: hex sha256 over the code
// bytes concatenated with the optional fields blob.
func Digest(code, fields []byte) string {
	h := sha256.New()
	h.Write(code)
	h.Write(fields)
	return hex.EncodeToString(h.Sum(nil))
}

// Cost returns the upload cost in stroops for a payload of the given size:
// size/divisor XLM at 7 fractional digits, rounded half-up.
func Cost(payloadSize, divisor int64) int64 {
	return (payloadSize*10_000_000 + divisor/2) / divisor
}

// Upload validates and persists a new TxFunction.
//
// The digest-existence pre-check is a fast path only; under concurrent
// uploads of the same payload the atomic PutIfAbsent below decides the
// winner. The loser's fee payment has already been submitted by then; that
// at-least-once edge is documented in DESIGN.md.
func (s *Store) Upload(ctx context.Context, code, fields []byte, feeEnvelopeXDR string) (*Upload, error) {
	if len(code) == 0 {
		return nil, turret.New(turret.KindValidation, "txFunction code is required")
	}
	if len(fields) > 0 && !json.Valid(fields) {
		return nil, turret.New(turret.KindValidation, "txFunctionFields is not valid JSON")
	}

	hash := Digest(code, fields)

	exists, err := s.functions.Has(ctx, hash)
	if err != nil {
		return nil, turret.Wrap(turret.KindUnavailable, "txFunction store unreachable", err)
	}
	if exists {
		return nil, turret.New(turret.KindConflict,
			fmt.Sprintf("txFunction %s has already been uploaded to this turret", hash))
	}

	if s.cfg.Restricted {
		allowed, err := s.allowed.Has(ctx, hash)
		if err != nil {
			return nil, turret.Wrap(turret.KindUnavailable, "allow-list unreachable", err)
		}
		if !allowed {
			return nil, turret.New(turret.KindForbidden,
				fmt.Sprintf("txFunction %s is not allowed on this turret", hash))
		}
	}

	costStroops := Cost(int64(len(code)+len(fields)), s.cfg.UploadDivisor)
	cost := amount.StringFromInt64(costStroops)

	// Upload requires the exact cost: min = max = cost.
	payment, err := ledger.ValidateFeePayment(ctx, s.gw, s.cfg.NetworkPassphrase, s.cfg.TurretAddress,
		feeEnvelopeXDR, costStroops, costStroops)
	if err != nil {
		if turret.IsKind(err, turret.KindPayment) {
			return nil, turret.WithCost(err, cost)
		}
		return nil, err
	}

	signer, err := keypair.Random()
	if err != nil {
		return nil, turret.Wrap(turret.KindUnavailable, "signer generation failed", err)
	}

	rec := record{
		Code:   code,
		Fields: fields,
		Meta: metadata{
			Cost:            cost,
			PaymentHash:     payment.Hash,
			CodeLength:      len(code),
			SignerSecret:    signer.Seed(),
			SignerPublicKey: signer.Address(),
		},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, turret.Wrap(turret.KindUnavailable, "txFunction encode failed", err)
	}
	if err := s.functions.PutIfAbsent(ctx, hash, data); err != nil {
		if kv.IsExists(err) {
			return nil, turret.New(turret.KindConflict,
				fmt.Sprintf("txFunction %s has already been uploaded to this turret", hash))
		}
		return nil, turret.Wrap(turret.KindUnavailable, "txFunction store write failed", err)
	}

	return &Upload{Hash: hash, SignerPublicKey: signer.Address()}, nil
}

// ResolveLocalSigner returns the dedicated signer public key for a function
// this node hosts. This is how the heal engine proves the local node actually
// serves a function before agreeing to co-sign a rotation for it.
func (s *Store) ResolveLocalSigner(ctx context.Context, hash string) (string, error) {
	rec, err := s.load(ctx, hash)
	if err != nil {
		return "", err
	}
	return rec.Meta.SignerPublicKey, nil
}

// Details returns the published metadata for a stored function.
func (s *Store) Details(ctx context.Context, hash string) (*Details, error) {
	rec, err := s.load(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &Details{
		Hash:            hash,
		SignerPublicKey: rec.Meta.SignerPublicKey,
		Cost:            rec.Meta.Cost,
		PaymentHash:     rec.Meta.PaymentHash,
		CodeLength:      rec.Meta.CodeLength,
	}, nil
}

// SignTransactionHash produces the local signer's detached signature over a
// transaction hash. Only the signature and the public key cross the store
// boundary.
func (s *Store) SignTransactionHash(ctx context.Context, hash string, txHash []byte) (sig []byte, signerPublicKey string, err error) {
	rec, err := s.load(ctx, hash)
	if err != nil {
		return nil, "", err
	}
	kp, err := keypair.ParseFull(rec.Meta.SignerSecret)
	if err != nil {
		return nil, "", turret.Wrap(turret.KindUnavailable, "stored signer secret is unusable", err)
	}
	sig, err = kp.Sign(txHash)
	if err != nil {
		return nil, "", turret.Wrap(turret.KindUnavailable, "signing failed", err)
	}
	return sig, rec.Meta.SignerPublicKey, nil
}

func (s *Store) load(ctx context.Context, hash string) (*record, error) {
	data, err := s.functions.Get(ctx, hash)
	if err != nil {
		if kv.IsNotFound(err) {
			return nil, turret.New(turret.KindNotFound, "txFunction could not be found on this turret")
		}
		return nil, turret.Wrap(turret.KindUnavailable, "txFunction store unreachable", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, turret.Wrap(turret.KindUnavailable, "stored txFunction is unreadable", err)
	}
	return &rec, nil
}
