package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/internal/services"
)

type PolicyHandler struct {
	app           *pocketbase.PocketBase
	policyService *services.PolicyService
}

func NewPolicyHandler(app *pocketbase.PocketBase, policyService *services.PolicyService) *PolicyHandler {
	return &PolicyHandler{
		app:           app,
		policyService: policyService,
	}
}

// CreatePolicy - Create an access policy, caller becomes organizer
func (h *PolicyHandler) CreatePolicy(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID         string `json:"event_id"`
		IsPublic        bool   `json:"is_public"`
		RequiresPayment bool   `json:"requires_payment"`
		PaymentAmount   int64  `json:"payment_amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	policy, err := h.policyService.Create(req.EventID, req.IsPublic, req.RequiresPayment, req.PaymentAmount, e.Auth.Id)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, policy)
}

// GetPolicy - Public summary of a policy
func (h *PolicyHandler) GetPolicy(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	summary, err := h.policyService.Summary(eventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, summary)
}

// GetRegistry - Full participant registry, organizer only
func (h *PolicyHandler) GetRegistry(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	policy, err := h.policyService.Policy(eventID)
	if err != nil {
		return apiError(err)
	}
	if policy.Organizer != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	return e.JSON(http.StatusOK, policy)
}

// Join - Self-enroll into a public policy
func (h *PolicyHandler) Join(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	if err := h.policyService.Join(eventID, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "joined"})
}

// Leave - Withdraw from a policy
func (h *PolicyHandler) Leave(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	if err := h.policyService.Leave(eventID, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "left"})
}

// AddParticipant - Organizer enrolls a principal directly
func (h *PolicyHandler) AddParticipant(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	var req struct {
		Principal   string `json:"principal"`
		AccessLevel int    `json:"access_level"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.policyService.AddParticipant(eventID, e.Auth.Id, req.Principal, req.AccessLevel); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "added"})
}

// ConfirmPayment - Mark a participant's payment as settled
func (h *PolicyHandler) ConfirmPayment(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	var req struct {
		Principal string `json:"principal"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Principal == "" {
		req.Principal = e.Auth.Id
	}

	if err := h.policyService.ConfirmPayment(eventID, e.Auth.Id, req.Principal); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}

// Deactivate - Flip the policy kill switch off
func (h *PolicyHandler) Deactivate(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	if err := h.policyService.Deactivate(eventID, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "deactivated"})
}

// Reactivate - Flip the policy kill switch back on
func (h *PolicyHandler) Reactivate(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")

	if err := h.policyService.Reactivate(eventID, e.Auth.Id); err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]string{"status": "reactivated"})
}
