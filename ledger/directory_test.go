package ledger_test

import (
	"testing"

	"github.com/stellar/stellar-turrets/ledger"
)

func TestParseOwnerDirectory(t *testing.T) {
	data := map[string][]byte{
		"turret.SIGNER_A": []byte("TURRET_1"),
		"turret.SIGNER_B": []byte("TURRET_2"),
		"config.flag":     []byte("on"),
		"turret.":         []byte("nameless"),
	}

	dir := ledger.ParseOwnerDirectory(data)
	if len(dir) != 2 {
		t.Fatalf("directory size: got %d want 2", len(dir))
	}

	owner, ok := dir.TurretFor("SIGNER_A")
	if !ok || owner != "TURRET_1" {
		t.Fatalf("TurretFor(SIGNER_A): got %q/%v", owner, ok)
	}

	signer, ok := dir.SignerOwnedBy("TURRET_2")
	if !ok || signer != "SIGNER_B" {
		t.Fatalf("SignerOwnedBy(TURRET_2): got %q/%v", signer, ok)
	}

	if _, ok := dir.SignerOwnedBy("TURRET_3"); ok {
		t.Fatalf("SignerOwnedBy matched an unrecorded turret")
	}
	if dir.HasOwner("TURRET_3") {
		t.Fatalf("HasOwner matched an unrecorded turret")
	}
	if !dir.HasOwner("TURRET_1") {
		t.Fatalf("HasOwner missed a recorded turret")
	}
}

func TestOwnerEntryKeyRoundTrip(t *testing.T) {
	dir := ledger.ParseOwnerDirectory(map[string][]byte{
		ledger.OwnerEntryKey("SIGNER_A"): []byte("TURRET_1"),
	})
	if owner, ok := dir.TurretFor("SIGNER_A"); !ok || owner != "TURRET_1" {
		t.Fatalf("entry written via OwnerEntryKey not parsed back: %q/%v", owner, ok)
	}
}
