package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// blacklistLedger is the grow-only set of accounts deemed fraudulent.
// Membership forces a 1.0 risk score on every later scoring pass. The ledger
// only shrinks on an explicit engine reset, which replaces it wholesale.
type blacklistLedger struct {
	members map[string]bool
}

func newBlacklistLedger() *blacklistLedger {
	return &blacklistLedger{members: make(map[string]bool)}
}

// add inserts an account and reports whether it was newly added. Re-adding
// is a no-op, which keeps the blacklisted counter exact.
func (b *blacklistLedger) add(account string) bool {
	if b.members[account] {
		return false
	}
	b.members[account] = true
	return true
}

func (b *blacklistLedger) contains(account string) bool { return b.members[account] }

func (b *blacklistLedger) size() int { return len(b.members) }

// snapshot returns the members in sorted order.
func (b *blacklistLedger) snapshot() []string {
	out := make([]string, 0, len(b.members))
	for account := range b.members {
		out = append(out, account)
	}
	sort.Strings(out)
	return out
}

// hashAccountID is what leaves the process when a blacklist event is
// notarized: the hex SHA-256 of the account identifier, never the raw id.
func hashAccountID(account string) string {
	sum := sha256.Sum256([]byte(account))
	return hex.EncodeToString(sum[:])
}
