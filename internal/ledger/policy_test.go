package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/internal/status"
	"ticket-ledger/internal/treasury"
	"ticket-ledger/models"
)

func newTestLedger(t *testing.T, opts Options) (*Ledger, *treasury.Memory) {
	t.Helper()
	bank := treasury.NewMemory()
	return New(bank, opts), bank
}

func TestLedger_CreatePolicy_InsertsOrganizer(t *testing.T) {
	l, _ := newTestLedger(t, Options{})

	p, err := l.CreatePolicy("concert-42", true, true, 100, "alice")
	require.NoError(t, err)

	rec, ok := p.Participants["alice"]
	require.True(t, ok, "organizer must be present in participants at creation")
	assert.Equal(t, AccessOrganizer, rec.AccessLevel)
	assert.True(t, rec.HasPaid)
	assert.True(t, p.IsActive)
	assert.Equal(t, "alice", p.Organizer)
}

func TestLedger_CreatePolicy_InvalidInput(t *testing.T) {
	l, _ := newTestLedger(t, Options{})

	_, err := l.CreatePolicy("", true, false, 0, "alice")
	assert.ErrorIs(t, err, status.ErrInvalidInput)

	_, err = l.CreatePolicy("e", true, false, 0, "")
	assert.ErrorIs(t, err, status.ErrInvalidInput)

	_, err = l.CreatePolicy("e", true, true, -5, "alice")
	assert.ErrorIs(t, err, status.ErrInvalidInput)
}

func TestLedger_CreatePolicy_DuplicateEventID(t *testing.T) {
	l, _ := newTestLedger(t, Options{})

	_, err := l.CreatePolicy("e", true, false, 0, "alice")
	require.NoError(t, err)

	_, err = l.CreatePolicy("e", true, false, 0, "bob")
	assert.ErrorIs(t, err, status.ErrInvalidInput)
}

func TestLedger_Join_FreeEventMarksPaid(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")

	require.NoError(t, l.Join("e", "bob"))

	p, err := l.Policy("e")
	require.NoError(t, err)
	rec := p.Participants["bob"]
	assert.True(t, rec.HasPaid, "free events default has_paid to true")
	assert.Equal(t, AccessBasic, rec.AccessLevel)
}

func TestLedger_Join_PaidEventDefersPayment(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, true, 100, "alice")

	// Join never blocks on payment; it only records the debt.
	require.NoError(t, l.Join("e", "bob"))

	p, err := l.Policy("e")
	require.NoError(t, err)
	assert.False(t, p.Participants["bob"].HasPaid)
}

func TestLedger_Join_IdempotentRejection(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")

	require.NoError(t, l.Join("e", "bob"))
	require.NoError(t, l.Join("e", "carol"))

	err := l.Join("e", "bob")
	assert.ErrorIs(t, err, status.ErrAlreadyEnrolled)

	// The loser sees a clean rejection; state stays intact.
	p, err := l.Policy("e")
	require.NoError(t, err)
	assert.Len(t, p.Participants, 3)
}

func TestLedger_Join_InactivePolicy(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")
	require.NoError(t, l.Deactivate("e", "alice"))

	err := l.Join("e", "bob")
	assert.ErrorIs(t, err, status.ErrEventInactive)
}

func TestLedger_Join_PrivatePolicy(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", false, false, 0, "alice")

	// Only organizer-added principals may be present on a private policy.
	err := l.Join("e", "bob")
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	require.NoError(t, l.AddParticipant("e", "alice", "bob", AccessBasic))
}

func TestLedger_Leave_OrganizerPermanence(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")

	err := l.Leave("e", "alice")
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	p, perr := l.Policy("e")
	require.NoError(t, perr)
	_, present := p.Participants["alice"]
	assert.True(t, present, "organizer is never absent from participants")
}

func TestLedger_Leave_NotEnrolled(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")

	err := l.Leave("e", "bob")
	assert.ErrorIs(t, err, status.ErrNotEnrolled)
}

func TestLedger_Leave_RemovesRecord(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")
	require.NoError(t, l.Join("e", "bob"))

	require.NoError(t, l.Leave("e", "bob"))

	p, err := l.Policy("e")
	require.NoError(t, err)
	_, present := p.Participants["bob"]
	assert.False(t, present)
}

func TestLedger_AddParticipant_OrganizerOnly(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, true, 100, "alice")

	err := l.AddParticipant("e", "mallory", "bob", AccessBasic)
	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestLedger_AddParticipant_SkipsPayment(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, true, 100, "alice")

	require.NoError(t, l.AddParticipant("e", "alice", "bob", AccessElevated))

	p, err := l.Policy("e")
	require.NoError(t, err)
	rec := p.Participants["bob"]
	assert.True(t, rec.HasPaid, "allowlisted participants skip the payment requirement")
	assert.Equal(t, AccessElevated, rec.AccessLevel)
}

func TestLedger_AddParticipant_AlreadyEnrolled(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")
	require.NoError(t, l.Join("e", "bob"))

	err := l.AddParticipant("e", "alice", "bob", AccessBasic)
	assert.ErrorIs(t, err, status.ErrAlreadyEnrolled)
}

func TestLedger_ConfirmPayment_FlipsHasPaid(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, true, 100, "alice")
	require.NoError(t, l.Join("e", "bob"))

	// The principal confirms its own settlement.
	require.NoError(t, l.ConfirmPayment("e", "bob", "bob"))

	p, err := l.Policy("e")
	require.NoError(t, err)
	assert.True(t, p.Participants["bob"].HasPaid)
}

func TestLedger_ConfirmPayment_Unauthorized(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, true, 100, "alice")
	require.NoError(t, l.Join("e", "bob"))

	err := l.ConfirmPayment("e", "mallory", "bob")
	assert.ErrorIs(t, err, status.ErrUnauthorized)
}

func TestLedger_ConfirmPayment_NotEnrolled(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, true, 100, "alice")

	err := l.ConfirmPayment("e", "alice", "bob")
	assert.ErrorIs(t, err, status.ErrNotEnrolled)
}

func TestLedger_Deactivate_OrganizerOnly(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")

	assert.ErrorIs(t, l.Deactivate("e", "bob"), status.ErrUnauthorized)
	assert.ErrorIs(t, l.Reactivate("e", "bob"), status.ErrUnauthorized)
	assert.NoError(t, l.Deactivate("e", "alice"))
}

func TestLedger_Deactivate_RetainsParticipants(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")
	require.NoError(t, l.Join("e", "bob"))

	require.NoError(t, l.Deactivate("e", "alice"))

	p, err := l.Policy("e")
	require.NoError(t, err)
	assert.Len(t, p.Participants, 2, "deactivation does not clear participants")
	assert.False(t, p.IsActive)
}

func TestLedger_RejectedOperationEmitsNothing(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")
	require.NoError(t, l.Join("e", "bob"))
	before := len(l.Log(0))

	require.ErrorIs(t, l.Join("e", "bob"), status.ErrAlreadyEnrolled)
	require.ErrorIs(t, l.Leave("e", "carol"), status.ErrNotEnrolled)
	require.ErrorIs(t, l.Deactivate("e", "bob"), status.ErrUnauthorized)

	assert.Len(t, l.Log(0), before, "rejected transactions never emit notifications")
}

func TestLedger_NotificationOrderAndKinds(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "e", true, false, 0, "alice")
	require.NoError(t, l.Join("e", "bob"))
	require.NoError(t, l.Leave("e", "bob"))

	log := l.Log(0)
	require.Len(t, log, 3)
	assert.Equal(t, models.NotifyPolicyCreated, log[0].Kind)
	assert.Equal(t, models.NotifyParticipantJoined, log[1].Kind)
	assert.Equal(t, models.NotifyParticipantLeft, log[2].Kind)
	for i, n := range log {
		assert.Equal(t, uint64(i+1), n.Seq)
	}
}

func TestLedger_RestorePolicy_RejectsBrokenInvariant(t *testing.T) {
	l, _ := newTestLedger(t, Options{})

	err := l.RestorePolicy(&AccessPolicy{
		EventID:      "e",
		Organizer:    "alice",
		Participants: map[string]ParticipantRecord{},
	})
	assert.ErrorIs(t, err, status.ErrInvalidInput)
}

func mustPolicy(t *testing.T, l *Ledger, eventID string, isPublic, requiresPayment bool, amount int64, creator string) {
	t.Helper()
	_, err := l.CreatePolicy(eventID, isPublic, requiresPayment, amount, creator)
	require.NoError(t, err)
}
