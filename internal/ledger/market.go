package ledger

import (
	"context"
	"fmt"
	"time"

	"ticket-ledger/internal/status"
	"ticket-ledger/models"
)

// Listing is an ephemeral offer of a ticket for resale. It is consumed
// atomically by Buy: currency to the seller, the ticket to the buyer, the
// listing gone.
type Listing struct {
	TicketID string    `json:"ticket_id"`
	Seller   string    `json:"seller"`
	Price    int64     `json:"price"`
	ListedAt time.Time `json:"listed_at"`
}

// ListForSale offers a ticket for resale and marks it available for
// purchase. Soulbound tickets can never be listed, for any price and any
// seller. Only the holder may list. Re-listing replaces the previous offer.
func (l *Ledger) ListForSale(ticketID string, price int64, seller string) (*Listing, error) {
	if price < 0 {
		return nil, status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tickets[ticketID]
	if !ok {
		return nil, status.ErrNotFound
	}
	if t.IsSoulbound {
		return nil, status.ErrSoulbound
	}
	if seller != t.Holder {
		return nil, status.ErrUnauthorized
	}

	listing := &Listing{
		TicketID: ticketID,
		Seller:   seller,
		Price:    price,
		ListedAt: l.now(),
	}
	l.listings[ticketID] = listing
	t.Listed = true

	l.emit(models.NotifyTicketListed, t.EventID, seller, ticketID, price)
	cp := *listing
	return &cp, nil
}

// Buy consumes a listing: the payment moves to the seller in full (excess is
// the seller's), the ticket's holder becomes the buyer, the listing is
// destroyed. A failed payment check or transfer changes nothing.
func (l *Ledger) Buy(ctx context.Context, ticketID string, payment Payment, buyer string) error {
	if buyer == "" {
		return status.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	listing, ok := l.listings[ticketID]
	if !ok {
		return status.ErrNotFound
	}
	t := l.tickets[ticketID]
	if payment.Amount < listing.Price {
		return status.ErrInsufficientPayment
	}
	if err := l.transfer(ctx, payment.Payer, listing.Seller, payment.Amount); err != nil {
		return fmt.Errorf("%w: %v", status.ErrTransferFailed, err)
	}

	l.ticketsByHolder[t.Holder] = removeID(l.ticketsByHolder[t.Holder], ticketID)
	t.Holder = buyer
	t.Listed = false
	l.ticketsByHolder[buyer] = append(l.ticketsByHolder[buyer], ticketID)
	delete(l.listings, ticketID)

	l.emit(models.NotifyTicketSold, t.EventID, buyer, ticketID, payment.Amount)
	return nil
}

// Listing returns a copy of the active listing for a ticket.
func (l *Ledger) Listing(ticketID string) (*Listing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	listing, ok := l.listings[ticketID]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *listing
	return &cp, nil
}
