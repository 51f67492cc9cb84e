package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/internal/ledger"
	"ticket-ledger/models"
	"ticket-ledger/monitoring"
)

// PolicyService runs participant-registry operations against the ledger and
// mirrors the resulting state into the access_policies collection. The
// ledger arena is authoritative; the collection exists so state survives a
// restart and stays queryable from the admin UI.
type PolicyService struct {
	app     core.App
	ledger  *ledger.Ledger
	monitor *monitoring.Monitor
}

func NewPolicyService(app core.App, led *ledger.Ledger, monitor *monitoring.Monitor) *PolicyService {
	return &PolicyService{app: app, ledger: led, monitor: monitor}
}

func (s *PolicyService) Create(eventID string, isPublic, requiresPayment bool, paymentAmount int64, creator string) (*ledger.AccessPolicy, error) {
	p, err := s.ledger.CreatePolicy(eventID, isPublic, requiresPayment, paymentAmount, creator)
	s.track("create_policy", eventID, err)
	if err != nil {
		return nil, err
	}

	s.mirror(eventID)
	return p, nil
}

func (s *PolicyService) Join(eventID, principal string) error {
	err := s.ledger.Join(eventID, principal)
	s.track("join", eventID, err)
	if err != nil {
		return err
	}

	s.mirror(eventID)
	return nil
}

func (s *PolicyService) Leave(eventID, principal string) error {
	err := s.ledger.Leave(eventID, principal)
	s.track("leave", eventID, err)
	if err != nil {
		return err
	}

	s.mirror(eventID)
	return nil
}

func (s *PolicyService) AddParticipant(eventID, caller, principal string, accessLevel int) error {
	err := s.ledger.AddParticipant(eventID, caller, principal, accessLevel)
	s.track("add_participant", eventID, err)
	if err != nil {
		return err
	}

	s.mirror(eventID)
	return nil
}

func (s *PolicyService) ConfirmPayment(eventID, caller, principal string) error {
	err := s.ledger.ConfirmPayment(eventID, caller, principal)
	s.track("confirm_payment", eventID, err)
	if err != nil {
		return err
	}

	s.mirror(eventID)
	return nil
}

func (s *PolicyService) Deactivate(eventID, caller string) error {
	err := s.ledger.Deactivate(eventID, caller)
	s.track("deactivate", eventID, err)
	if err != nil {
		return err
	}

	s.mirror(eventID)
	return nil
}

func (s *PolicyService) Reactivate(eventID, caller string) error {
	err := s.ledger.Reactivate(eventID, caller)
	s.track("reactivate", eventID, err)
	if err != nil {
		return err
	}

	s.mirror(eventID)
	return nil
}

// Policy returns the full registry record, organizer-gated at the handler.
func (s *PolicyService) Policy(eventID string) (*ledger.AccessPolicy, error) {
	return s.ledger.Policy(eventID)
}

func (s *PolicyService) Summary(eventID string) (*models.PolicySummary, error) {
	return s.ledger.Summary(eventID)
}

// Restore loads every mirrored policy back into the ledger arena. Called
// once on boot before the routes come up.
func (s *PolicyService) Restore() error {
	if s.app == nil {
		return nil
	}

	records, err := s.app.FindAllRecords("access_policies")
	if err != nil {
		return err
	}

	for _, r := range records {
		var participants map[string]ledger.ParticipantRecord
		if raw := r.GetString("participants"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &participants); err != nil {
				slog.Error("policy restore: bad participants payload", "event_id", r.GetString("event_id"), "error", err)
				continue
			}
		}

		createdAt, _ := time.Parse(time.RFC3339, r.GetString("created_at"))

		p := &ledger.AccessPolicy{
			EventID:         r.GetString("event_id"),
			Organizer:       r.GetString("organizer"),
			IsPublic:        r.GetBool("is_public"),
			RequiresPayment: r.GetBool("requires_payment"),
			PaymentAmount:   int64(r.GetInt("payment_amount")),
			IsActive:        r.GetBool("is_active"),
			Participants:    participants,
			CreatedAt:       createdAt,
		}

		if err := s.ledger.RestorePolicy(p); err != nil {
			slog.Error("policy restore: rejected record", "event_id", p.EventID, "error", err)
		}
	}

	slog.Info("policy restore complete", "count", len(records))
	return nil
}

func (s *PolicyService) track(operation, eventID string, err error) {
	if s.monitor == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	s.monitor.TrackOperation(operation, eventID, outcome)
}

// mirror upserts the policy's collection record. Mirror failures are logged
// and swallowed: the ledger already committed.
func (s *PolicyService) mirror(eventID string) {
	if s.app == nil {
		return
	}

	p, err := s.ledger.Policy(eventID)
	if err != nil {
		slog.Error("policy mirror: read back failed", "event_id", eventID, "error", err)
		return
	}

	record, err := s.app.FindFirstRecordByFilter("access_policies", "event_id = {:event}", dbx.Params{"event": eventID})
	if err != nil {
		collection, cerr := s.app.FindCollectionByNameOrId("access_policies")
		if cerr != nil {
			slog.Error("policy mirror: missing collection", "error", cerr)
			return
		}
		record = core.NewRecord(collection)
	}

	participants, err := json.Marshal(p.Participants)
	if err != nil {
		slog.Error("policy mirror: encode participants", "event_id", eventID, "error", err)
		return
	}

	record.Set("event_id", p.EventID)
	record.Set("organizer", p.Organizer)
	record.Set("is_public", p.IsPublic)
	record.Set("requires_payment", p.RequiresPayment)
	record.Set("payment_amount", p.PaymentAmount)
	record.Set("is_active", p.IsActive)
	record.Set("participants", string(participants))
	record.Set("created_at", p.CreatedAt.Format(time.RFC3339))

	if err := s.app.Save(record); err != nil {
		slog.Error("policy mirror: save failed", "event_id", eventID, "error", err)
		return
	}

	if s.monitor != nil {
		s.monitor.SetEnrolled(eventID, len(p.Participants))
	}
}
