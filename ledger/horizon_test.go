package ledger_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/protocols/horizon"

	"github.com/stellar/stellar-turrets/ledger"
	"github.com/stellar/stellar-turrets/turret"
)

func TestHorizonGetAccount(t *testing.T) {
	accountID := keypair.MustRandom().Address()
	signerKey := keypair.MustRandom().Address()
	ownerValue := base64.StdEncoding.EncodeToString([]byte("TURRET_1"))

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts/"+accountID, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(horizon.Account{
			AccountID:  accountID,
			Sequence:   42,
			HomeDomain: "turret.example.com",
			Thresholds: horizon.AccountThresholds{LowThreshold: 1, MedThreshold: 2, HighThreshold: 3},
			Signers: []horizon.Signer{
				{Key: signerKey, Weight: 5, Type: "ed25519_public_key"},
			},
			Data: map[string]string{"turret." + signerKey: ownerValue},
		})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	gw := ledger.NewHorizonGateway(ts.URL)
	acct, err := gw.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if acct.ID != accountID || acct.Sequence != 42 || acct.HomeDomain != "turret.example.com" {
		t.Fatalf("account head mismatch: %+v", acct)
	}
	if w, ok := acct.SignerWeight(signerKey); !ok || w != 5 {
		t.Fatalf("signer weight: got %d/%v", w, ok)
	}
	if acct.Thresholds.Medium != 2 {
		t.Fatalf("thresholds: %+v", acct.Thresholds)
	}
	dir := ledger.ParseOwnerDirectory(acct.Data)
	if owner, ok := dir.TurretFor(signerKey); !ok || owner != "TURRET_1" {
		t.Fatalf("data entry not decoded: %q/%v", owner, ok)
	}
}

func TestHorizonGetAccountNotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	gw := ledger.NewHorizonGateway(ts.URL)
	_, err := gw.GetAccount(context.Background(), keypair.MustRandom().Address())
	if !turret.IsKind(err, turret.KindNotFound) {
		t.Fatalf("got err=%v want NotFound kind", err)
	}
}

func TestHorizonGetAccountOutageIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	gw := ledger.NewHorizonGateway(ts.URL)
	_, err := gw.GetAccount(context.Background(), keypair.MustRandom().Address())
	if !turret.IsKind(err, turret.KindUnavailable) {
		t.Fatalf("got err=%v want Unavailable kind", err)
	}

	// A dead endpoint is also transient, not a validation failure.
	ts.Close()
	_, err = gw.GetAccount(context.Background(), keypair.MustRandom().Address())
	if !turret.IsKind(err, turret.KindUnavailable) {
		t.Fatalf("dead endpoint: got err=%v want Unavailable kind", err)
	}
}

func TestHorizonTransactionExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions/aaaa", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(horizon.Transaction{Hash: "aaaa"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	gw := ledger.NewHorizonGateway(ts.URL)
	exists, err := gw.TransactionExists(context.Background(), "aaaa")
	if err != nil || !exists {
		t.Fatalf("known hash: got %v/%v", exists, err)
	}
	exists, err = gw.TransactionExists(context.Background(), "bbbb")
	if err != nil || exists {
		t.Fatalf("unknown hash: got %v/%v", exists, err)
	}
}

func TestHorizonSubmit(t *testing.T) {
	var gotTx string
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("submit form parse: %v", err)
		}
		gotTx = r.PostFormValue("tx")
		_ = json.NewEncoder(w).Encode(horizon.Transaction{Hash: "cafebabe"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	gw := ledger.NewHorizonGateway(ts.URL)
	hash, err := gw.Submit(context.Background(), "AAAA-envelope")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if hash != "cafebabe" {
		t.Fatalf("hash: got %q", hash)
	}
	if gotTx != "AAAA-envelope" {
		t.Fatalf("submitted envelope: got %q", gotTx)
	}
}

func TestHorizonSubmitRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"title": "Transaction Failed", "status": 400})
	}))
	defer ts.Close()

	gw := ledger.NewHorizonGateway(ts.URL)
	_, err := gw.Submit(context.Background(), "AAAA")
	if !turret.IsKind(err, turret.KindValidation) {
		t.Fatalf("got err=%v want Validation kind", err)
	}
	if !strings.Contains(err.Error(), "Transaction Failed") {
		t.Fatalf("reason: %q", err.Error())
	}
}

func TestResolveTxFunctionSigner(t *testing.T) {
	signer := keypair.MustRandom().Address()
	mux := http.NewServeMux()
	mux.HandleFunc("/tx-functions/deadbeef", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"signer": signer})
	})
	ts := httptest.NewTLSServer(mux)
	defer ts.Close()
	domain := strings.TrimPrefix(ts.URL, "https://")

	gw := ledger.NewHorizonGateway("http://127.0.0.1:0", ledger.WithPeerHTTPClient(ts.Client()))

	if got := gw.ResolveTxFunctionSigner(context.Background(), domain, "deadbeef"); got != signer {
		t.Fatalf("resolved signer: got %q want %q", got, signer)
	}

	// Unknown hash, bad domain, and empty domain all resolve to unknown, not
	// to an error.
	if got := gw.ResolveTxFunctionSigner(context.Background(), domain, "unknown"); got != "" {
		t.Fatalf("unknown hash resolved to %q", got)
	}
	if got := gw.ResolveTxFunctionSigner(context.Background(), "no-such-host.invalid", "deadbeef"); got != "" {
		t.Fatalf("bad domain resolved to %q", got)
	}
	if got := gw.ResolveTxFunctionSigner(context.Background(), "", "deadbeef"); got != "" {
		t.Fatalf("empty domain resolved to %q", got)
	}
}
