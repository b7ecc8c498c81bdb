package ledgertest

import (
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
)

// PaymentEnvelope builds an unsigned single-operation native payment
// envelope, the shape a fee payment is expected to have. Fee validation never
// checks requester signatures; the ledger does that at submission.
func PaymentEnvelope(t *testing.T, destination, amount string) string {
	t.Helper()
	return Envelope(t, &txnbuild.Payment{
		Destination: destination,
		Amount:      amount,
		Asset:       txnbuild.NativeAsset{},
	})
}

// Envelope builds an unsigned envelope around arbitrary operations.
func Envelope(t *testing.T, ops ...txnbuild.Operation) string {
	t.Helper()
	source := txnbuild.NewSimpleAccount(keypair.MustRandom().Address(), 7)
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewInfiniteTimeout()},
		Operations:           ops,
	})
	if err != nil {
		t.Fatalf("envelope build failed: %v", err)
	}
	xdr, err := tx.Base64()
	if err != nil {
		t.Fatalf("envelope encode failed: %v", err)
	}
	return xdr
}
