package ledger

import (
	"ticket-ledger/models"
)

// Authorize answers "may this principal decrypt this event's data right
// now?". It is the decision function behind the external key-release
// service. Checks run in order and short-circuit to false; no error kind is
// ever surfaced, so an unknown event is indistinguishable from a denial:
//
//  1. the claimed event id matches the policy's event id (anti replay
//     across events),
//  2. the policy is active,
//  3. the principal is enrolled,
//  4. when payment is required, the principal has paid.
//
// The access-granted notification is emitted only on the all-pass path,
// never on a failing one, so denials leak nothing through the stream.
func (l *Ledger) Authorize(policyRef, claimedEventID, principal string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[policyRef]
	if !ok {
		return false
	}
	if claimedEventID != p.EventID {
		return false
	}
	if !p.IsActive {
		return false
	}
	rec, enrolled := p.Participants[principal]
	if !enrolled {
		return false
	}
	if p.RequiresPayment && !rec.HasPaid {
		return false
	}

	l.emit(models.NotifyAccessGranted, p.EventID, principal, "", 0)
	return true
}

// AuthorizeMembershipOnly checks enrollment alone. Intended for
// lower-assurance call sites such as UI gating, not the key-release gate: it
// ignores the kill switch and payment state.
func (l *Ledger) AuthorizeMembershipOnly(policyRef, principal string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[policyRef]
	if !ok {
		return false
	}
	_, enrolled := p.Participants[principal]
	return enrolled
}
