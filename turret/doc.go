// Package turret defines the shared error taxonomy and identity helpers used
// across the turret core.
//
// Every component reports failures through turret.Error with a closed Kind
// enumeration; HTTP layers map kinds to status codes, and callers branch on
// Kind rather than on message text.
package turret
