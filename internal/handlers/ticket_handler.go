package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/services"
)

type TicketHandler struct {
	app           *pocketbase.PocketBase
	ticketService *services.TicketService
	policyService *services.PolicyService

	// requireHolderBurn mirrors the ledger's burn authorization setting so
	// the route can skip the auth check when burns are open.
	requireHolderBurn bool
}

func NewTicketHandler(app *pocketbase.PocketBase, ticketService *services.TicketService, policyService *services.PolicyService, requireHolderBurn bool) *TicketHandler {
	return &TicketHandler{
		app:               app,
		ticketService:     ticketService,
		policyService:     policyService,
		requireHolderBurn: requireHolderBurn,
	}
}

// MintFree - Mint a ticket with no payment involved
func (h *TicketHandler) MintFree(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID      string `json:"event_id"`
		TicketNumber int64  `json:"ticket_number"`
		IsSoulbound  bool   `json:"is_soulbound"`
		MetadataURI  string `json:"metadata_uri"`
		Holder       string `json:"holder"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Holder == "" {
		req.Holder = e.Auth.Id
	}

	ticket, err := h.ticketService.MintFree(req.EventID, req.TicketNumber, req.IsSoulbound, req.MetadataURI, req.Holder)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, ticket)
}

// MintPaid - Mint a ticket against the event policy's price. The caller pays,
// the organizer is the payee.
func (h *TicketHandler) MintPaid(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID      string `json:"event_id"`
		TicketNumber int64  `json:"ticket_number"`
		IsSoulbound  bool   `json:"is_soulbound"`
		MetadataURI  string `json:"metadata_uri"`
		Amount       int64  `json:"amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	policy, err := h.policyService.Summary(req.EventID)
	if err != nil {
		return apiError(err)
	}

	payment := ledger.Payment{Payer: e.Auth.Id, Amount: req.Amount}
	ticket, err := h.ticketService.MintPaid(e.Request.Context(), req.EventID, req.TicketNumber, req.IsSoulbound,
		req.MetadataURI, payment, policy.PaymentAmount, policy.Organizer, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, ticket)
}

// GetTicket - Full ticket for the holder, privacy view for everyone else
func (h *TicketHandler) GetTicket(e *core.RequestEvent) error {
	ticketID := e.Request.PathValue("ticketId")

	if e.Auth != nil {
		ticket, err := h.ticketService.Ticket(ticketID)
		if err != nil {
			return apiError(err)
		}
		if ticket.Holder == e.Auth.Id {
			return e.JSON(http.StatusOK, ticket)
		}
	}

	info, err := h.ticketService.TicketInfo(ticketID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, info)
}

// MyTickets - All tickets held by the caller
func (h *TicketHandler) MyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"tickets": h.ticketService.TicketsByHolder(e.Auth.Id),
	})
}

// EventTickets - All tickets for an event, organizer only
func (h *TicketHandler) EventTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	policy, err := h.policyService.Summary(eventID)
	if err != nil {
		return apiError(err)
	}
	if policy.Organizer != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"tickets": h.ticketService.TicketsByEvent(eventID),
	})
}

// CheckIn - One-way check-in by the holder
func (h *TicketHandler) CheckIn(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID := e.Request.PathValue("ticketId")

	record, err := h.ticketService.CheckIn(ticketID, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, record)
}

// SubmitProof - Attach or replace the attendance proof hash
func (h *TicketHandler) SubmitProof(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID := e.Request.PathValue("ticketId")

	var req struct {
		Proof string `json:"proof"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		return apis.NewBadRequestError("Proof must be hex encoded", err)
	}

	ticket, err := h.ticketService.Ticket(ticketID)
	if err != nil {
		return apiError(err)
	}
	if ticket.Holder != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	if err := h.ticketService.SubmitProof(ticketID, proof); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "proof submitted"})
}

// Burn - Destroy a ticket. Requires auth only when burns are holder-gated.
func (h *TicketHandler) Burn(e *core.RequestEvent) error {
	caller := ""
	if e.Auth != nil {
		caller = e.Auth.Id
	}
	if h.requireHolderBurn && caller == "" {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID := e.Request.PathValue("ticketId")

	if err := h.ticketService.Burn(ticketID, caller); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "burned"})
}

// ListForSale - Offer a ticket for resale
func (h *TicketHandler) ListForSale(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID := e.Request.PathValue("ticketId")

	var req struct {
		Price int64 `json:"price"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	listing, err := h.ticketService.ListForSale(ticketID, req.Price, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, listing)
}

// Buy - Purchase a listed ticket
func (h *TicketHandler) Buy(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID := e.Request.PathValue("ticketId")

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	payment := ledger.Payment{Payer: e.Auth.Id, Amount: req.Amount}
	if err := h.ticketService.Buy(e.Request.Context(), ticketID, payment, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "purchased"})
}

// MyAttendance - The caller's attendance history
func (h *TicketHandler) MyAttendance(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"attendance": h.ticketService.AttendanceByHolder(e.Auth.Id),
	})
}

// EventStats - Issued versus used counts for an event
func (h *TicketHandler) EventStats(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	return e.JSON(http.StatusOK, h.ticketService.Stats(eventID))
}
