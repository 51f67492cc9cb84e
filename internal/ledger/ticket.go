package ledger

import (
	"context"
	"fmt"
	"time"

	"ticket-ledger/internal/status"
	"ticket-ledger/models"
	"ticket-ledger/utils"
)

// Ticket is a per-attendee capability object: proof of enrollment or payment
// for one event, carrying check-in and attendance-proof state. Tickets are
// not linked to the event's AccessPolicy; possession and enrollment are
// independent facts about the same principal.
type Ticket struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	TicketNumber int64     `json:"ticket_number"`
	Holder       string    `json:"holder"`
	IsSoulbound  bool      `json:"is_soulbound"`
	CheckedIn    bool      `json:"checked_in"`
	ProofHash    []byte    `json:"proof_hash,omitempty"`
	MintedAt     time.Time `json:"minted_at"`
	MetadataURI  string    `json:"metadata_uri,omitempty"`
	Listed       bool      `json:"listed"`
}

// AttendanceRecord is the immutable artifact produced by check-in. It is
// owned by the holder and never mutated again.
type AttendanceRecord struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	EventID     string    `json:"event_id"`
	Holder      string    `json:"holder"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// Payment is the funds offered to a paid mint or purchase, denominated in
// smallest currency units.
type Payment struct {
	Payer  string `json:"payer"`
	Amount int64  `json:"amount"`
}

// MintFree mints a ticket with no payment involved. All lifecycle flags
// start false or empty.
func (l *Ledger) MintFree(eventID string, ticketNumber int64, isSoulbound bool, metadataURI, holder string) (*Ticket, error) {
	if eventID == "" || holder == "" {
		return nil, status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.mintLocked(eventID, ticketNumber, isSoulbound, metadataURI, holder, 0)
}

// MintPaid verifies the payment covers the price, transfers the full payment
// amount to the payee (no change: excess is the payee's), then mints. The
// payment check, the funds transfer and the mint are one atomic step: a
// failed check or transfer leaves no ticket and moves no funds.
func (l *Ledger) MintPaid(ctx context.Context, eventID string, ticketNumber int64, isSoulbound bool, metadataURI string, payment Payment, price int64, payee, holder string) (*Ticket, error) {
	if eventID == "" || holder == "" || payee == "" {
		return nil, status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if payment.Amount < price {
		return nil, status.ErrInsufficientPayment
	}
	if err := l.transfer(ctx, payment.Payer, payee, payment.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrTransferFailed, err)
	}

	return l.mintLocked(eventID, ticketNumber, isSoulbound, metadataURI, holder, payment.Amount)
}

func (l *Ledger) mintLocked(eventID string, ticketNumber int64, isSoulbound bool, metadataURI, holder string, amount int64) (*Ticket, error) {
	code, err := utils.GenerateCode(8)
	if err != nil {
		return nil, fmt.Errorf("ledger: generate ticket id: %w", err)
	}
	id := fmt.Sprintf("tkt_%s", code)

	t := &Ticket{
		ID:           id,
		EventID:      eventID,
		TicketNumber: ticketNumber,
		Holder:       holder,
		IsSoulbound:  isSoulbound,
		MintedAt:     l.now(),
		MetadataURI:  metadataURI,
	}
	l.tickets[id] = t
	l.ticketsByEvent[eventID] = append(l.ticketsByEvent[eventID], id)
	l.ticketsByHolder[holder] = append(l.ticketsByHolder[holder], id)

	l.emit(models.NotifyTicketMinted, eventID, holder, id, amount)
	return t.clone(), nil
}

// CheckIn marks the ticket used, one-way, and produces an immutable
// attendance record owned by the holder. Only the holder may check in.
func (l *Ledger) CheckIn(ticketID, caller string) (*AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[ticketID]
	if !ok {
		return nil, status.ErrNotFound
	}
	if caller != t.Holder {
		return nil, status.ErrUnauthorized
	}
	if t.CheckedIn {
		return nil, status.ErrAlreadyCheckedIn
	}

	code, err := utils.GenerateCode(8)
	if err != nil {
		return nil, fmt.Errorf("ledger: generate attendance id: %w", err)
	}

	t.CheckedIn = true
	rec := &AttendanceRecord{
		ID:          fmt.Sprintf("att_%s", code),
		TicketID:    ticketID,
		EventID:     t.EventID,
		Holder:      t.Holder,
		CheckedInAt: l.now(),
	}
	l.attendance[rec.ID] = rec

	l.emit(models.NotifyTicketCheckedIn, t.EventID, t.Holder, ticketID, 0)
	cp := *rec
	return &cp, nil
}

// SubmitProof stores an attendance proof on the ticket. Resubmission
// replaces the prior value; there is no already-submitted error. The ledger
// does not interpret the bytes beyond the injected validator.
func (l *Ledger) SubmitProof(ticketID string, proof []byte) error {
	if len(proof) == 0 {
		return status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[ticketID]
	if !ok {
		return status.ErrNotFound
	}
	if err := l.validator.Validate(t.EventID, proof); err != nil {
		return fmt.Errorf("%w: %v", status.ErrInvalidInput, err)
	}

	t.ProofHash = append([]byte(nil), proof...)

	l.emit(models.NotifyProofSubmitted, t.EventID, t.Holder, ticketID, 0)
	return nil
}

// Burn destroys the ticket and any active listing for it. Reachable from any
// state. The holder check is a configuration point: the original primitive
// performs none and trusts the caller.
func (l *Ledger) Burn(ticketID, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[ticketID]
	if !ok {
		return status.ErrNotFound
	}
	if l.opts.RequireHolderBurn && caller != t.Holder {
		return status.ErrUnauthorized
	}

	delete(l.tickets, ticketID)
	delete(l.listings, ticketID)
	l.ticketsByEvent[t.EventID] = removeID(l.ticketsByEvent[t.EventID], ticketID)
	l.ticketsByHolder[t.Holder] = removeID(l.ticketsByHolder[t.Holder], ticketID)

	l.emit(models.NotifyTicketBurned, t.EventID, t.Holder, ticketID, 0)
	return nil
}

// Ticket returns a copy of the ticket.
func (l *Ledger) Ticket(ticketID string) (*Ticket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[ticketID]
	if !ok {
		return nil, status.ErrNotFound
	}
	return t.clone(), nil
}

// TicketInfo returns the privacy-preserving view: no holder identity.
func (l *Ledger) TicketInfo(ticketID string) (*models.TicketInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[ticketID]
	if !ok {
		return nil, status.ErrNotFound
	}
	return &models.TicketInfo{
		TicketID:     t.ID,
		EventID:      t.EventID,
		TicketNumber: t.TicketNumber,
		IsSoulbound:  t.IsSoulbound,
		CheckedIn:    t.CheckedIn,
		HasProof:     len(t.ProofHash) > 0,
		MintedAt:     t.MintedAt,
		MetadataURI:  t.MetadataURI,
	}, nil
}

// TicketsByEvent returns copies of every ticket minted for the event.
func (l *Ledger) TicketsByEvent(eventID string) []*Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Ticket, 0, len(l.ticketsByEvent[eventID]))
	for _, id := range l.ticketsByEvent[eventID] {
		out = append(out, l.tickets[id].clone())
	}
	return out
}

// TicketsByHolder returns copies of every ticket the principal holds.
func (l *Ledger) TicketsByHolder(holder string) []*Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Ticket, 0, len(l.ticketsByHolder[holder]))
	for _, id := range l.ticketsByHolder[holder] {
		out = append(out, l.tickets[id].clone())
	}
	return out
}

// AttendanceByHolder returns the holder's immutable attendance records.
func (l *Ledger) AttendanceByHolder(holder string) []*AttendanceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*AttendanceRecord, 0)
	for _, rec := range l.attendance {
		if rec.Holder == holder {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out
}

// Stats counts issued and checked-in tickets for one event.
func (l *Ledger) Stats(eventID string) *models.AttendanceStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	issued := len(l.ticketsByEvent[eventID])
	used := 0
	for _, id := range l.ticketsByEvent[eventID] {
		if l.tickets[id].CheckedIn {
			used++
		}
	}

	rate := 0.0
	if issued > 0 {
		rate = float64(used) / float64(issued)
	}
	return &models.AttendanceStats{
		EventID:        eventID,
		TicketsIssued:  issued,
		TicketsUsed:    used,
		AttendanceRate: rate,
	}
}

// RestoreTicket loads a ticket snapshot back into the arena on boot. It
// emits nothing.
func (l *Ledger) RestoreTicket(t *Ticket) error {
	if t == nil || t.ID == "" || t.EventID == "" || t.Holder == "" {
		return status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.tickets[t.ID]; exists {
		return status.ErrInvalidInput
	}
	cp := t.clone()
	l.tickets[cp.ID] = cp
	l.ticketsByEvent[cp.EventID] = append(l.ticketsByEvent[cp.EventID], cp.ID)
	l.ticketsByHolder[cp.Holder] = append(l.ticketsByHolder[cp.Holder], cp.ID)
	return nil
}

func (t *Ticket) clone() *Ticket {
	cp := *t
	cp.ProofHash = append([]byte(nil), t.ProofHash...)
	return &cp
}
