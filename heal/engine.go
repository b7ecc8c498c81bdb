// Package heal implements the signer-rotation protocol engine.
//
// A heal replaces an untrusted turret's signer on a delegating control
// account with a signer from a turret the local quorum currently trusts. The
// engine is one-shot and stateless: it only reads ledger state and TxFunction
// store metadata, and produces an unsubmitted, locally co-signed transaction
// for the caller to gather further signatures on and submit. Every rejection
// is terminal and side-effect-free.
package heal

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/stellar/go/txnbuild"

	"github.com/stellar/stellar-turrets/ledger"
	"github.com/stellar/stellar-turrets/turret"
)

// TrustRegistry answers quorum membership queries.
type TrustRegistry interface {
	IsTrusted(turretPublicKey string) bool
}

// FunctionSigner is the slice of the TxFunction store the engine needs: proof
// that this node hosts the function, and a detached signature from the
// function's dedicated signer. The signer secret stays behind this interface.
type FunctionSigner interface {
	ResolveLocalSigner(ctx context.Context, hash string) (string, error)
	SignTransactionHash(ctx context.Context, hash string, txHash []byte) (sig []byte, signerPublicKey string, err error)
}

// Config carries the engine's slice of the turret configuration.
type Config struct {
	TurretAddress     string
	NetworkPassphrase string
}

// Engine orchestrates signer replacement on a delegating account.
type Engine struct {
	trust TrustRegistry
	gw    ledger.Gateway
	store FunctionSigner
	cfg   Config
}

func New(trust TrustRegistry, gw ledger.Gateway, store FunctionSigner, cfg Config) *Engine {
	return &Engine{trust: trust, gw: gw, store: store, cfg: cfg}
}

// Request identifies one rotation: replace oldTurret's signer on the control
// account with a signer from newTurret, for the given function. Ephemeral,
// never persisted.
type Request struct {
	ControlAccountID string
	OldTurretID      string
	NewTurretID      string
	TxFunctionHash   string
}

// Result is the cooperatively-signed rotation. The caller adds its own
// signature(s) and submits; the engine performs no submission.
type Result struct {
	// XDR is the unsubmitted transaction envelope with the four rotation
	// operations already appended.
	XDR string `json:"xdr"`
	// Signer is the local co-signer's public key.
	Signer string `json:"signer"`
	// Signature is the local co-signer's detached signature over the
	// transaction hash, base64-encoded.
	Signature string `json:"signature"`
}

// Heal runs the rotation state machine: Validating → Resolving → Building →
// Signing. Validation steps run strictly in order; each step's postcondition
// is the next step's precondition.
func (e *Engine) Heal(ctx context.Context, req Request) (*Result, error) {
	// Self-heal guard: a turret may never be party to removing or installing
	// itself. Precedes every other check.
	if req.OldTurretID == e.cfg.TurretAddress || req.NewTurretID == e.cfg.TurretAddress {
		return nil, turret.New(turret.KindValidation,
			"a turret may not add or remove itself on a control account")
	}

	// Quorum check: rotation is only legitimate when it installs a turret the
	// local node trusts in place of one it has already stopped trusting.
	if !e.trust.IsTrusted(req.NewTurretID) {
		return nil, turret.New(turret.KindValidation,
			"the new turret is not trusted by the local turret quorum")
	}
	if e.trust.IsTrusted(req.OldTurretID) {
		return nil, turret.New(turret.KindValidation,
			"the old turret is still trusted by the local quorum and cannot be removed")
	}

	// Local standing check: this turret only participates in healing
	// functions it is actively serving as a signer for.
	localSigner, err := e.store.ResolveLocalSigner(ctx, req.TxFunctionHash)
	if err != nil {
		return nil, err
	}
	acct, err := e.gw.GetAccount(ctx, req.ControlAccountID)
	if err != nil {
		return nil, err
	}
	if !acct.HasSigner(localSigner) {
		return nil, turret.New(turret.KindValidation,
			fmt.Sprintf("this turret is not a signer on %s for %s", req.ControlAccountID, req.TxFunctionHash))
	}

	// Directory lookup: the account's own turret.<key> entries, not turret
	// self-reporting, decide which signer the old turret owns.
	dir := ledger.ParseOwnerDirectory(acct.Data)
	oldSignerKey, ok := dir.SignerOwnedBy(req.OldTurretID)
	if !ok {
		return nil, turret.New(turret.KindNotFound,
			"the old turret is not currently recorded as a signer owner on the control account")
	}
	oldWeight, ok := acct.SignerWeight(oldSignerKey)
	if !ok {
		return nil, turret.New(turret.KindNotFound,
			"the old turret's recorded signer is not a signer on the control account")
	}

	if dir.HasOwner(req.NewTurretID) {
		return nil, turret.New(turret.KindValidation,
			"the new turret is already recorded as a signer owner on the control account")
	}

	// Remote resolution: ask the new turret's published endpoint which signer
	// it assigns to the function.
	newAcct, err := e.gw.GetAccount(ctx, req.NewTurretID)
	if err != nil {
		return nil, err
	}
	newSignerKey := e.gw.ResolveTxFunctionSigner(ctx, newAcct.HomeDomain, req.TxFunctionHash)
	if newSignerKey == "" {
		return nil, turret.New(turret.KindNotFound, "unable to find contract on new turret")
	}
	if acct.HasSigner(newSignerKey) {
		return nil, turret.New(turret.KindValidation,
			fmt.Sprintf("the new turret signer %s is already a signer on %s", newSignerKey, req.ControlAccountID))
	}

	tx, err := e.buildRotation(acct, oldSignerKey, oldWeight, newSignerKey, req.NewTurretID)
	if err != nil {
		return nil, turret.Wrap(turret.KindValidation, "rotation transaction build failed", err)
	}

	txHash, err := tx.Hash(e.cfg.NetworkPassphrase)
	if err != nil {
		return nil, turret.Wrap(turret.KindValidation, "rotation transaction hash failed", err)
	}
	sig, signerPub, err := e.store.SignTransactionHash(ctx, req.TxFunctionHash, txHash[:])
	if err != nil {
		return nil, err
	}
	xdr, err := tx.Base64()
	if err != nil {
		return nil, turret.Wrap(turret.KindValidation, "rotation transaction encode failed", err)
	}

	return &Result{
		XDR:       xdr,
		Signer:    signerPub,
		Signature: base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// buildRotation assembles the single atomic rotation transaction. The add
// precedes the remove so the account never drops below its signing threshold
// at any intermediate operation; signer lists are not deletable on the
// ledger, so removal is a weight of zero.
func (e *Engine) buildRotation(acct *ledger.Account, oldSignerKey string, oldWeight int32, newSignerKey, newTurretID string) (*txnbuild.Transaction, error) {
	source := txnbuild.NewSimpleAccount(acct.ID, acct.Sequence)
	return txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		BaseFee:              10_000,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(5 * 60),
		},
		Operations: []txnbuild.Operation{
			&txnbuild.SetOptions{
				Signer: &txnbuild.Signer{Address: newSignerKey, Weight: txnbuild.Threshold(oldWeight)},
			},
			&txnbuild.SetOptions{
				Signer: &txnbuild.Signer{Address: oldSignerKey, Weight: 0},
			},
			&txnbuild.ManageData{
				Name:  ledger.OwnerEntryKey(newSignerKey),
				Value: []byte(newTurretID),
			},
			&txnbuild.ManageData{
				Name:  ledger.OwnerEntryKey(oldSignerKey),
				Value: nil,
			},
		},
	})
}
