package ledger_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"

	"github.com/stellar/stellar-turrets/ledger"
	"github.com/stellar/stellar-turrets/ledger/ledgertest"
	"github.com/stellar/stellar-turrets/turret"
)

const passphrase = network.TestNetworkPassphrase

func TestValidateFeePaymentAcceptsExactAmountAndSubmits(t *testing.T) {
	turretAddr := keypair.MustRandom().Address()
	gw := ledgertest.New()
	env := ledgertest.PaymentEnvelope(t, turretAddr, "0.0012000")

	payment, err := ledger.ValidateFeePayment(context.Background(), gw, passphrase, turretAddr, env, 12000, 12000)
	if err != nil {
		t.Fatalf("ValidateFeePayment failed: %v", err)
	}
	if payment.Stroops != 12000 {
		t.Fatalf("Stroops: got %d want 12000", payment.Stroops)
	}
	if len(payment.Hash) != 64 {
		t.Fatalf("payment hash not a hex tx hash: %q", payment.Hash)
	}
	if len(gw.Submitted) != 1 || gw.Submitted[0] != env {
		t.Fatalf("payment was not submitted to the ledger")
	}
}

func TestValidateFeePaymentBounds(t *testing.T) {
	turretAddr := keypair.MustRandom().Address()
	gw := ledgertest.New()

	// One stroop short of the minimum fails; the exact boundary passes.
	low := ledgertest.PaymentEnvelope(t, turretAddr, "0.0011999")
	_, err := ledger.ValidateFeePayment(context.Background(), gw, passphrase, turretAddr, low, 12000, 12000)
	if !turret.IsKind(err, turret.KindPayment) {
		t.Fatalf("below-min: got err=%v want Payment kind", err)
	}
	if !strings.Contains(err.Error(), "too low") {
		t.Fatalf("below-min reason: %q", err.Error())
	}

	high := ledgertest.PaymentEnvelope(t, turretAddr, "0.0012001")
	_, err = ledger.ValidateFeePayment(context.Background(), gw, passphrase, turretAddr, high, 12000, 12000)
	if !turret.IsKind(err, turret.KindPayment) {
		t.Fatalf("above-max: got err=%v want Payment kind", err)
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Fatalf("above-max reason: %q", err.Error())
	}
}

func TestValidateFeePaymentRejectsWrongShape(t *testing.T) {
	turretAddr := keypair.MustRandom().Address()
	other := keypair.MustRandom().Address()
	gw := ledgertest.New()
	ctx := context.Background()

	cases := map[string]string{
		"missing envelope": "",
		"garbage xdr":      "not-xdr",
		"two operations": ledgertest.Envelope(t,
			&txnbuild.Payment{Destination: turretAddr, Amount: "0.0012000", Asset: txnbuild.NativeAsset{}},
			&txnbuild.Payment{Destination: turretAddr, Amount: "0.0012000", Asset: txnbuild.NativeAsset{}},
		),
		"wrong destination": ledgertest.PaymentEnvelope(t, other, "0.0012000"),
		"non-native asset": ledgertest.Envelope(t, &txnbuild.Payment{
			Destination: turretAddr,
			Amount:      "0.0012000",
			Asset:       txnbuild.CreditAsset{Code: "USD", Issuer: other},
		}),
		"not a payment": ledgertest.Envelope(t, &txnbuild.BumpSequence{BumpTo: 100}),
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ledger.ValidateFeePayment(ctx, gw, passphrase, turretAddr, env, 12000, 12000)
			if !turret.IsKind(err, turret.KindPayment) {
				t.Fatalf("got err=%v want Payment kind", err)
			}
		})
	}
	if len(gw.Submitted) != 0 {
		t.Fatalf("rejected payments were submitted")
	}
}

func TestValidateFeePaymentRejectsReplayedReceipt(t *testing.T) {
	turretAddr := keypair.MustRandom().Address()
	gw := ledgertest.New()
	env := ledgertest.PaymentEnvelope(t, turretAddr, "0.0012000")

	// First submission succeeds and lands on the ledger.
	payment, err := ledger.ValidateFeePayment(context.Background(), gw, passphrase, turretAddr, env, 12000, 12000)
	if err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	gw.OnLedger[payment.Hash] = true

	_, err = ledger.ValidateFeePayment(context.Background(), gw, passphrase, turretAddr, env, 12000, 12000)
	if !turret.IsKind(err, turret.KindPayment) {
		t.Fatalf("replay: got err=%v want Payment kind", err)
	}
	if !strings.Contains(err.Error(), "already been submitted") {
		t.Fatalf("replay reason: %q", err.Error())
	}
}

func TestValidateFeePaymentSurfacesLedgerOutage(t *testing.T) {
	turretAddr := keypair.MustRandom().Address()
	gw := ledgertest.New()
	gw.Down = true

	env := ledgertest.PaymentEnvelope(t, turretAddr, "0.0012000")
	_, err := ledger.ValidateFeePayment(context.Background(), gw, passphrase, turretAddr, env, 12000, 12000)
	if !turret.IsKind(err, turret.KindUnavailable) {
		t.Fatalf("outage: got err=%v want Unavailable kind", err)
	}
}
