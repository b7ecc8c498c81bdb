// Package ledgertest provides an in-memory ledger.Gateway for tests.
package ledgertest

import (
	"context"
	"fmt"

	"github.com/stellar/stellar-turrets/ledger"
	"github.com/stellar/stellar-turrets/turret"
)

// Gateway is a fake ledger. Configure state directly on the fields.
type Gateway struct {
	// Accounts by account id.
	Accounts map[string]*ledger.Account
	// OnLedger marks transaction hashes as already submitted.
	OnLedger map[string]bool
	// PeerSigners maps home domain → txFunction hash → published signer.
	PeerSigners map[string]map[string]string

	// Submitted collects every envelope passed to Submit.
	Submitted []string
	// SubmitErr, when set, is returned by Submit.
	SubmitErr error
	// Down, when set, makes every call fail as Unavailable.
	Down bool
}

func New() *Gateway {
	return &Gateway{
		Accounts:    make(map[string]*ledger.Account),
		OnLedger:    make(map[string]bool),
		PeerSigners: make(map[string]map[string]string),
	}
}

func (g *Gateway) GetAccount(_ context.Context, accountID string) (*ledger.Account, error) {
	if g.Down {
		return nil, turret.New(turret.KindUnavailable, "ledger down")
	}
	acct, ok := g.Accounts[accountID]
	if !ok {
		return nil, turret.New(turret.KindNotFound, fmt.Sprintf("account %s not found", accountID))
	}
	return acct, nil
}

func (g *Gateway) TransactionExists(_ context.Context, hash string) (bool, error) {
	if g.Down {
		return false, turret.New(turret.KindUnavailable, "ledger down")
	}
	return g.OnLedger[hash], nil
}

func (g *Gateway) Submit(_ context.Context, envelopeXDR string) (string, error) {
	if g.Down {
		return "", turret.New(turret.KindUnavailable, "ledger down")
	}
	if g.SubmitErr != nil {
		return "", g.SubmitErr
	}
	g.Submitted = append(g.Submitted, envelopeXDR)
	return fmt.Sprintf("submitted-%d", len(g.Submitted)), nil
}

func (g *Gateway) ResolveTxFunctionSigner(_ context.Context, turretHomeDomain, txFunctionHash string) string {
	return g.PeerSigners[turretHomeDomain][txFunctionHash]
}

var _ ledger.Gateway = (*Gateway)(nil)
