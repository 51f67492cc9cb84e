package models

import (
	"time"
)

// Notification kinds, one per successful state-changing operation.
const (
	NotifyPolicyCreated     = "policy_created"
	NotifyParticipantJoined = "participant_joined"
	NotifyParticipantLeft   = "participant_left"
	NotifyParticipantAdded  = "participant_added"
	NotifyPaymentConfirmed  = "payment_confirmed"
	NotifyPolicyDeactivated = "policy_deactivated"
	NotifyPolicyReactivated = "policy_reactivated"
	NotifyAccessGranted     = "access_granted"
	NotifyTicketMinted      = "ticket_minted"
	NotifyTicketCheckedIn   = "ticket_checked_in"
	NotifyProofSubmitted    = "proof_submitted"
	NotifyTicketBurned      = "ticket_burned"
	NotifyTicketListed      = "ticket_listed"
	NotifyTicketSold        = "ticket_sold"
)

// Notification is one immutable record in the ledger's append-only stream.
// Emission is part of the enclosing operation: a notification never exists
// without the corresponding state change, and never for a rejected one.
type Notification struct {
	Seq       uint64    `json:"seq"`
	Kind      string    `json:"kind"`
	EventID   string    `json:"event_id"`
	Principal string    `json:"principal,omitempty"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	At        time.Time `json:"at"`
}

// PolicySummary is the public view of an access policy.
type PolicySummary struct {
	EventID         string    `json:"event_id"`
	Organizer       string    `json:"organizer"`
	IsPublic        bool      `json:"is_public"`
	RequiresPayment bool      `json:"requires_payment"`
	PaymentAmount   int64     `json:"payment_amount"`
	IsActive        bool      `json:"is_active"`
	Participants    int       `json:"participants"`
	CreatedAt       time.Time `json:"created_at"`
}

// TicketInfo is the privacy-preserving view of a ticket: no holder identity.
type TicketInfo struct {
	TicketID     string    `json:"ticket_id"`
	EventID      string    `json:"event_id"`
	TicketNumber int64     `json:"ticket_number"`
	IsSoulbound  bool      `json:"is_soulbound"`
	CheckedIn    bool      `json:"checked_in"`
	HasProof     bool      `json:"has_proof"`
	MintedAt     time.Time `json:"minted_at"`
	MetadataURI  string    `json:"metadata_uri,omitempty"`
}

// AttendanceStats counts issued and checked-in tickets for one event.
type AttendanceStats struct {
	EventID        string  `json:"event_id"`
	TicketsIssued  int     `json:"tickets_issued"`
	TicketsUsed    int     `json:"tickets_used"`
	AttendanceRate float64 `json:"attendance_rate"`
}
