package ledger

import (
	"time"

	"ticket-ledger/internal/status"
	"ticket-ledger/models"
)

// Access levels for participant records.
const (
	AccessBasic     = 0
	AccessElevated  = 1
	AccessOrganizer = 2
)

// ParticipantRecord is the per-principal entry in a policy's registry. It is
// a value type: callers never hold a reference into the ledger.
type ParticipantRecord struct {
	JoinedAt    time.Time `json:"joined_at"`
	HasPaid     bool      `json:"has_paid"`
	AccessLevel int       `json:"access_level"`
}

// AccessPolicy is the per-event authorization record: who may attend or
// decrypt the event's data, whether enrollment is open, whether payment is
// required, and the global kill switch.
type AccessPolicy struct {
	EventID         string                       `json:"event_id"`
	Organizer       string                       `json:"organizer"`
	IsPublic        bool                         `json:"is_public"`
	RequiresPayment bool                         `json:"requires_payment"`
	PaymentAmount   int64                        `json:"payment_amount"`
	IsActive        bool                         `json:"is_active"`
	Participants    map[string]ParticipantRecord `json:"participants"`
	CreatedAt       time.Time                    `json:"created_at"`
}

// CreatePolicy creates a policy for eventID owned by creator. The creator is
// inserted as the organizer participant atomically: access level 2, paid,
// never removable. Fails only on malformed input.
func (l *Ledger) CreatePolicy(eventID string, isPublic, requiresPayment bool, paymentAmount int64, creator string) (*AccessPolicy, error) {
	if eventID == "" || creator == "" {
		return nil, status.ErrInvalidInput
	}
	if paymentAmount < 0 {
		return nil, status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// The event id is the arena key, so a duplicate is malformed input
	// rather than a registry conflict.
	if _, exists := l.policies[eventID]; exists {
		return nil, status.ErrInvalidInput
	}

	now := l.now()
	p := &AccessPolicy{
		EventID:         eventID,
		Organizer:       creator,
		IsPublic:        isPublic,
		RequiresPayment: requiresPayment,
		PaymentAmount:   paymentAmount,
		IsActive:        true,
		Participants: map[string]ParticipantRecord{
			creator: {JoinedAt: now, HasPaid: true, AccessLevel: AccessOrganizer},
		},
		CreatedAt: now,
	}
	l.policies[eventID] = p

	l.emit(models.NotifyPolicyCreated, eventID, creator, "", 0)
	return p.clone(), nil
}

// Join self-enrolls a principal. Payment verification is a separate,
// caller-driven step: has_paid starts true only for free events, and Join
// never blocks on payment. Private policies reject self-enrollment; only the
// organizer allowlist path may add principals there.
func (l *Ledger) Join(eventID, principal string) error {
	if principal == "" {
		return status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[eventID]
	if !ok {
		return status.ErrNotFound
	}
	if !p.IsActive {
		return status.ErrEventInactive
	}
	if !p.IsPublic {
		return status.ErrUnauthorized
	}
	if _, enrolled := p.Participants[principal]; enrolled {
		return status.ErrAlreadyEnrolled
	}

	p.Participants[principal] = ParticipantRecord{
		JoinedAt:    l.now(),
		HasPaid:     !p.RequiresPayment,
		AccessLevel: AccessBasic,
	}

	l.emit(models.NotifyParticipantJoined, eventID, principal, "", 0)
	return nil
}

// Leave removes a principal from the registry. The organizer can never
// leave: removal attempts always fail with Unauthorized.
func (l *Ledger) Leave(eventID, principal string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[eventID]
	if !ok {
		return status.ErrNotFound
	}
	if principal == p.Organizer {
		return status.ErrUnauthorized
	}
	if _, enrolled := p.Participants[principal]; !enrolled {
		return status.ErrNotEnrolled
	}

	delete(p.Participants, principal)

	l.emit(models.NotifyParticipantLeft, eventID, principal, "", 0)
	return nil
}

// AddParticipant is the organizer allowlist path. It skips the payment
// requirement: the record is inserted with has_paid true unconditionally.
func (l *Ledger) AddParticipant(eventID, caller, principal string, accessLevel int) error {
	if principal == "" || accessLevel < AccessBasic || accessLevel > AccessOrganizer {
		return status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[eventID]
	if !ok {
		return status.ErrNotFound
	}
	if caller != p.Organizer {
		return status.ErrUnauthorized
	}
	if !p.IsActive {
		return status.ErrEventInactive
	}
	if _, enrolled := p.Participants[principal]; enrolled {
		return status.ErrAlreadyEnrolled
	}

	p.Participants[principal] = ParticipantRecord{
		JoinedAt:    l.now(),
		HasPaid:     true,
		AccessLevel: accessLevel,
	}

	l.emit(models.NotifyParticipantAdded, eventID, principal, "", 0)
	return nil
}

// ConfirmPayment marks an enrolled principal as paid. Either the organizer
// or the principal itself (after the treasury reports settlement) may
// confirm. Deactivation does not block confirmation: the kill switch only
// suppresses joins and grants.
func (l *Ledger) ConfirmPayment(eventID, caller, principal string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[eventID]
	if !ok {
		return status.ErrNotFound
	}
	if caller != p.Organizer && caller != principal {
		return status.ErrUnauthorized
	}
	rec, enrolled := p.Participants[principal]
	if !enrolled {
		return status.ErrNotEnrolled
	}
	if rec.HasPaid {
		return nil
	}

	rec.HasPaid = true
	p.Participants[principal] = rec

	l.emit(models.NotifyPaymentConfirmed, eventID, principal, "", p.PaymentAmount)
	return nil
}

// Deactivate flips the kill switch off. Organizer only. Participants are
// retained; already-issued tickets are unaffected.
func (l *Ledger) Deactivate(eventID, caller string) error {
	return l.setActive(eventID, caller, false)
}

// Reactivate flips the kill switch back on. Organizer only.
func (l *Ledger) Reactivate(eventID, caller string) error {
	return l.setActive(eventID, caller, true)
}

func (l *Ledger) setActive(eventID, caller string, active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[eventID]
	if !ok {
		return status.ErrNotFound
	}
	if caller != p.Organizer {
		return status.ErrUnauthorized
	}
	if p.IsActive == active {
		return nil
	}

	p.IsActive = active

	kind := models.NotifyPolicyDeactivated
	if active {
		kind = models.NotifyPolicyReactivated
	}
	l.emit(kind, eventID, caller, "", 0)
	return nil
}

// Policy returns a copy of the policy for eventID.
func (l *Ledger) Policy(eventID string) (*AccessPolicy, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[eventID]
	if !ok {
		return nil, status.ErrNotFound
	}
	return p.clone(), nil
}

// Summary returns the public view of the policy for eventID.
func (l *Ledger) Summary(eventID string) (*models.PolicySummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.policies[eventID]
	if !ok {
		return nil, status.ErrNotFound
	}
	return &models.PolicySummary{
		EventID:         p.EventID,
		Organizer:       p.Organizer,
		IsPublic:        p.IsPublic,
		RequiresPayment: p.RequiresPayment,
		PaymentAmount:   p.PaymentAmount,
		IsActive:        p.IsActive,
		Participants:    len(p.Participants),
		CreatedAt:       p.CreatedAt,
	}, nil
}

// RestorePolicy loads a snapshot back into the arena, used when rebuilding
// state from the collection mirror on boot. It emits nothing.
func (l *Ledger) RestorePolicy(p *AccessPolicy) error {
	if p == nil || p.EventID == "" || p.Organizer == "" {
		return status.ErrInvalidInput
	}
	rec, ok := p.Participants[p.Organizer]
	if !ok || rec.AccessLevel != AccessOrganizer || !rec.HasPaid {
		return status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.policies[p.EventID] = p.clone()
	return nil
}

func (p *AccessPolicy) clone() *AccessPolicy {
	cp := *p
	cp.Participants = make(map[string]ParticipantRecord, len(p.Participants))
	for k, v := range p.Participants {
		cp.Participants[k] = v
	}
	return &cp
}
