package services

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"ticket-ledger/internal/ledger"
	"ticket-ledger/models"
	"ticket-ledger/monitoring"
)

// TicketService runs the ticket lifecycle against the ledger and mirrors
// live tickets into the tickets collection. Attendance records stay in the
// arena only; they are derivable from the mirrored check-in flag.
type TicketService struct {
	app     core.App
	ledger  *ledger.Ledger
	monitor *monitoring.Monitor
}

func NewTicketService(app core.App, led *ledger.Ledger, monitor *monitoring.Monitor) *TicketService {
	return &TicketService{app: app, ledger: led, monitor: monitor}
}

func (s *TicketService) MintFree(eventID string, ticketNumber int64, isSoulbound bool, metadataURI, holder string) (*ledger.Ticket, error) {
	t, err := s.ledger.MintFree(eventID, ticketNumber, isSoulbound, metadataURI, holder)
	s.track("mint_free", eventID, err)
	if err != nil {
		return nil, err
	}

	s.mirror(t.ID)
	return t, nil
}

func (s *TicketService) MintPaid(ctx context.Context, eventID string, ticketNumber int64, isSoulbound bool, metadataURI string, payment ledger.Payment, price int64, payee, holder string) (*ledger.Ticket, error) {
	start := time.Now()
	t, err := s.ledger.MintPaid(ctx, eventID, ticketNumber, isSoulbound, metadataURI, payment, price, payee, holder)
	s.track("mint_paid", eventID, err)
	if err != nil {
		return nil, err
	}

	if s.monitor != nil {
		s.monitor.TrackTransfer(string(s.ledger.Treasury().Kind()), time.Since(start))
	}
	s.mirror(t.ID)
	return t, nil
}

func (s *TicketService) CheckIn(ticketID, caller string) (*ledger.AttendanceRecord, error) {
	rec, err := s.ledger.CheckIn(ticketID, caller)
	s.track("check_in", eventOf(rec), err)
	if err != nil {
		return nil, err
	}

	s.mirror(ticketID)
	return rec, nil
}

func (s *TicketService) SubmitProof(ticketID string, proof []byte) error {
	err := s.ledger.SubmitProof(ticketID, proof)
	s.track("submit_proof", "", err)
	if err != nil {
		return err
	}

	s.mirror(ticketID)
	return nil
}

func (s *TicketService) Burn(ticketID, caller string) error {
	err := s.ledger.Burn(ticketID, caller)
	s.track("burn", "", err)
	if err != nil {
		return err
	}

	s.dropMirror(ticketID)
	return nil
}

func (s *TicketService) ListForSale(ticketID string, price int64, seller string) (*ledger.Listing, error) {
	listing, err := s.ledger.ListForSale(ticketID, price, seller)
	s.track("list_for_sale", "", err)
	if err != nil {
		return nil, err
	}

	s.mirror(ticketID)
	return listing, nil
}

func (s *TicketService) Buy(ctx context.Context, ticketID string, payment ledger.Payment, buyer string) error {
	start := time.Now()
	err := s.ledger.Buy(ctx, ticketID, payment, buyer)
	s.track("buy", "", err)
	if err != nil {
		return err
	}

	if s.monitor != nil {
		s.monitor.TrackTransfer(string(s.ledger.Treasury().Kind()), time.Since(start))
	}
	s.mirror(ticketID)
	return nil
}

func (s *TicketService) Ticket(ticketID string) (*ledger.Ticket, error) {
	return s.ledger.Ticket(ticketID)
}

func (s *TicketService) TicketInfo(ticketID string) (*models.TicketInfo, error) {
	return s.ledger.TicketInfo(ticketID)
}

func (s *TicketService) TicketsByHolder(holder string) []*ledger.Ticket {
	return s.ledger.TicketsByHolder(holder)
}

func (s *TicketService) TicketsByEvent(eventID string) []*ledger.Ticket {
	return s.ledger.TicketsByEvent(eventID)
}

func (s *TicketService) AttendanceByHolder(holder string) []*ledger.AttendanceRecord {
	return s.ledger.AttendanceByHolder(holder)
}

func (s *TicketService) Stats(eventID string) *models.AttendanceStats {
	return s.ledger.Stats(eventID)
}

// Restore loads every mirrored ticket back into the ledger arena.
func (s *TicketService) Restore() error {
	if s.app == nil {
		return nil
	}

	records, err := s.app.FindAllRecords("tickets")
	if err != nil {
		return err
	}

	for _, r := range records {
		proofHash, err := hex.DecodeString(r.GetString("proof_hash"))
		if err != nil {
			slog.Error("ticket restore: bad proof hash", "ticket_id", r.GetString("ticket_id"), "error", err)
			continue
		}

		mintedAt, _ := time.Parse(time.RFC3339, r.GetString("minted_at"))

		t := &ledger.Ticket{
			ID:           r.GetString("ticket_id"),
			EventID:      r.GetString("event_id"),
			TicketNumber: int64(r.GetInt("ticket_number")),
			Holder:       r.GetString("holder"),
			IsSoulbound:  r.GetBool("is_soulbound"),
			CheckedIn:    r.GetBool("checked_in"),
			ProofHash:    proofHash,
			MintedAt:     mintedAt,
			MetadataURI:  r.GetString("metadata_uri"),
		}

		if err := s.ledger.RestoreTicket(t); err != nil {
			slog.Error("ticket restore: rejected record", "ticket_id", t.ID, "error", err)
		}
	}

	slog.Info("ticket restore complete", "count", len(records))
	return nil
}

func (s *TicketService) track(operation, eventID string, err error) {
	if s.monitor == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	s.monitor.TrackOperation(operation, eventID, outcome)
}

func eventOf(rec *ledger.AttendanceRecord) string {
	if rec == nil {
		return ""
	}
	return rec.EventID
}

func (s *TicketService) mirror(ticketID string) {
	if s.app == nil {
		return
	}

	t, err := s.ledger.Ticket(ticketID)
	if err != nil {
		slog.Error("ticket mirror: read back failed", "ticket_id", ticketID, "error", err)
		return
	}

	record, err := s.app.FindFirstRecordByFilter("tickets", "ticket_id = {:ticket}", dbx.Params{"ticket": ticketID})
	if err != nil {
		collection, cerr := s.app.FindCollectionByNameOrId("tickets")
		if cerr != nil {
			slog.Error("ticket mirror: missing collection", "error", cerr)
			return
		}
		record = core.NewRecord(collection)
	}

	record.Set("ticket_id", t.ID)
	record.Set("event_id", t.EventID)
	record.Set("ticket_number", t.TicketNumber)
	record.Set("holder", t.Holder)
	record.Set("is_soulbound", t.IsSoulbound)
	record.Set("checked_in", t.CheckedIn)
	record.Set("proof_hash", hex.EncodeToString(t.ProofHash))
	record.Set("minted_at", t.MintedAt.Format(time.RFC3339))
	record.Set("metadata_uri", t.MetadataURI)

	if err := s.app.Save(record); err != nil {
		slog.Error("ticket mirror: save failed", "ticket_id", ticketID, "error", err)
		return
	}

	if s.monitor != nil {
		s.monitor.SetActiveTickets(t.EventID, len(s.ledger.TicketsByEvent(t.EventID)))
	}
}

// dropMirror removes a burned ticket's collection record.
func (s *TicketService) dropMirror(ticketID string) {
	if s.app == nil {
		return
	}

	record, err := s.app.FindFirstRecordByFilter("tickets", "ticket_id = {:ticket}", dbx.Params{"ticket": ticketID})
	if err != nil {
		return
	}
	if err := s.app.Delete(record); err != nil {
		slog.Error("ticket mirror: delete failed", "ticket_id", ticketID, "error", err)
	}
}
