package turret

import (
	"fmt"

	"github.com/stellar/go/strkey"
)

// Identity is a turret's resolved on-ledger identity: its account public key
// plus the home domain under which it publishes TxFunction signers.
//
// Identities are immutable once resolved and are cached per request, never
// persisted.
type Identity struct {
	PublicKey  string
	HomeDomain string
}

// CheckAccountID rejects anything that is not a syntactically valid ed25519
// account identifier. The field name is only used in the error message.
func CheckAccountID(field, id string) error {
	if id == "" {
		return New(KindValidation, fmt.Sprintf("%s is required", field))
	}
	if !strkey.IsValidEd25519PublicKey(id) {
		return New(KindValidation, fmt.Sprintf("%s is not a valid account id", field))
	}
	return nil
}
