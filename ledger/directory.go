package ledger

import "strings"

// The owner directory is a small signer→turret map layered on the account's
// generic data-entry bag: entry key `turret.<signerPublicKey>`, value = the
// account id of the turret that owns that signer. The directory, not turret
// self-reporting, is the source of truth for signer ownership.

const ownerEntryPrefix = "turret."

// OwnerEntryKey returns the data-entry key recording ownership of a signer.
func OwnerEntryKey(signerKey string) string {
	return ownerEntryPrefix + signerKey
}

// OwnerDirectory maps signer public keys to the turret account ids that own
// them.
type OwnerDirectory map[string]string

// ParseOwnerDirectory extracts the directory from decoded account data
// entries. Entries outside the `turret.` namespace are ignored.
func ParseOwnerDirectory(data map[string][]byte) OwnerDirectory {
	dir := make(OwnerDirectory)
	for k, v := range data {
		signer, ok := strings.CutPrefix(k, ownerEntryPrefix)
		if !ok || signer == "" {
			continue
		}
		dir[signer] = string(v)
	}
	return dir
}

// TurretFor returns the turret recorded as owner of signerKey.
func (d OwnerDirectory) TurretFor(signerKey string) (string, bool) {
	t, ok := d[signerKey]
	return t, ok
}

// SignerOwnedBy returns the signer key recorded as owned by turretID.
func (d OwnerDirectory) SignerOwnedBy(turretID string) (string, bool) {
	for signer, turret := range d {
		if turret == turretID {
			return signer, true
		}
	}
	return "", false
}

// HasOwner reports whether any directory entry names turretID as an owner.
func (d OwnerDirectory) HasOwner(turretID string) bool {
	_, ok := d.SignerOwnedBy(turretID)
	return ok
}
