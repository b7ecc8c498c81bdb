package ledger

import (
	"context"
	"fmt"

	"github.com/stellar/go/amount"
	"github.com/stellar/go/txnbuild"

	"github.com/stellar/stellar-turrets/turret"
)

// FeePayment is the outcome of a validated, submitted fee payment.
type FeePayment struct {
	// Hash is the payment transaction hash, recorded as the payment reference.
	Hash string
	// Stroops is the paid amount.
	Stroops int64
}

// ValidateFeePayment enforces the fee-payment rules on a claimed payment
// envelope and, on success, submits it to the ledger:
//
//   - exactly one operation, a plain native-asset payment to turretAddress;
//   - amount within [minStroops, maxStroops], compared as integer stroops
//     (never floating point);
//   - the transaction hash must not already exist on the ledger, so an old
//     receipt cannot be replayed as proof of a new payment.
//
// Violations are Payment-kind errors with a human-readable reason; ledger
// outages surface as Unavailable.
func ValidateFeePayment(ctx context.Context, gw Gateway, networkPassphrase, turretAddress, envelopeXDR string, minStroops, maxStroops int64) (*FeePayment, error) {
	if envelopeXDR == "" {
		return nil, turret.New(turret.KindPayment, "fee payment is required")
	}

	generic, err := txnbuild.TransactionFromXDR(envelopeXDR)
	if err != nil {
		return nil, turret.Wrap(turret.KindPayment, "fee payment envelope is not valid XDR", err)
	}
	tx, ok := generic.Transaction()
	if !ok {
		return nil, turret.New(turret.KindPayment, "fee payments cannot be fee-bump transactions")
	}

	ops := tx.Operations()
	if len(ops) != 1 {
		return nil, turret.New(turret.KindPayment, "fee payments cannot have more than one operation")
	}
	pay, ok := ops[0].(*txnbuild.Payment)
	if !ok || pay.Destination != turretAddress || pay.Asset == nil || !pay.Asset.IsNative() {
		return nil, turret.New(turret.KindPayment,
			fmt.Sprintf("fee payments must be XLM payments made to %s", turretAddress))
	}

	paid, err := amount.ParseInt64(pay.Amount)
	if err != nil {
		return nil, turret.Wrap(turret.KindPayment, "fee payment amount is malformed", err)
	}
	if paid < minStroops {
		return nil, turret.New(turret.KindPayment,
			fmt.Sprintf("fee payment too low, min = %s", amount.StringFromInt64(minStroops)))
	}
	if paid > maxStroops {
		return nil, turret.New(turret.KindPayment,
			fmt.Sprintf("fee payment too large, max = %s", amount.StringFromInt64(maxStroops)))
	}

	hash, err := tx.HashHex(networkPassphrase)
	if err != nil {
		return nil, turret.Wrap(turret.KindPayment, "fee payment hash failed", err)
	}
	exists, err := gw.TransactionExists(ctx, hash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, turret.New(turret.KindPayment,
			fmt.Sprintf("fee payment %s has already been submitted", hash))
	}

	if _, err := gw.Submit(ctx, envelopeXDR); err != nil {
		if turret.IsKind(err, turret.KindUnavailable) {
			return nil, err
		}
		return nil, turret.Wrap(turret.KindPayment, "fee payment was rejected by the ledger", err)
	}
	return &FeePayment{Hash: hash, Stroops: paid}, nil
}
