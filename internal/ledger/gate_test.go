package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/models"
)

func TestLedger_Authorize_HappyPath(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "E", true, false, 0, "org")
	require.NoError(t, l.Join("E", "A"))

	assert.True(t, l.Authorize("E", "E", "A"))
	assert.True(t, l.Authorize("E", "E", "org"))
}

func TestLedger_Authorize_UnknownPolicyIsFalseNotError(t *testing.T) {
	l, _ := newTestLedger(t, Options{})

	// Nonexistent event and access denied look identical at this boundary.
	assert.False(t, l.Authorize("ghost", "ghost", "A"))
}

func TestLedger_Authorize_CrossEventReplay(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "E", true, false, 0, "org")
	require.NoError(t, l.Join("E", "A"))

	assert.False(t, l.Authorize("E", "other-event", "A"))
}

func TestLedger_Authorize_NotEnrolled(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "E", true, false, 0, "org")

	assert.False(t, l.Authorize("E", "E", "stranger"))
}

func TestLedger_Authorize_UnpaidWhenPaymentRequired(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "E", true, true, 100, "org")
	require.NoError(t, l.Join("E", "A"))

	assert.False(t, l.Authorize("E", "E", "A"))

	require.NoError(t, l.ConfirmPayment("E", "A", "A"))
	assert.True(t, l.Authorize("E", "E", "A"))
}

func TestLedger_Authorize_DeactivationMonotonicity(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "E", true, false, 0, "org")
	require.NoError(t, l.Join("E", "A"))

	require.True(t, l.Authorize("E", "E", "A"))

	require.NoError(t, l.Deactivate("E", "org"))
	assert.False(t, l.Authorize("E", "E", "A"), "deactivation must immediately revoke grants")

	// Membership was retained through deactivation.
	require.NoError(t, l.Reactivate("E", "org"))
	assert.True(t, l.Authorize("E", "E", "A"))
}

func TestLedger_Authorize_GrantNotificationOnlyOnSuccess(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "E", true, true, 100, "org")
	require.NoError(t, l.Join("E", "A"))
	before := len(l.Log(0))

	// Failing checks emit nothing: no enrollment/payment status leaks
	// through the stream.
	l.Authorize("E", "wrong", "A")
	l.Authorize("E", "E", "stranger")
	l.Authorize("E", "E", "A") // unpaid
	assert.Len(t, l.Log(0), before)

	require.NoError(t, l.ConfirmPayment("E", "org", "A"))
	require.True(t, l.Authorize("E", "E", "A"))

	log := l.Log(0)
	last := log[len(log)-1]
	assert.Equal(t, models.NotifyAccessGranted, last.Kind)
	assert.Equal(t, "A", last.Principal)
}

func TestLedger_AuthorizeMembershipOnly(t *testing.T) {
	l, _ := newTestLedger(t, Options{})
	mustPolicy(t, l, "E", true, true, 100, "org")
	require.NoError(t, l.Join("E", "A"))

	// Membership check alone: unpaid and deactivated both pass.
	assert.True(t, l.AuthorizeMembershipOnly("E", "A"))
	require.NoError(t, l.Deactivate("E", "org"))
	assert.True(t, l.AuthorizeMembershipOnly("E", "A"))

	assert.False(t, l.AuthorizeMembershipOnly("E", "stranger"))
	assert.False(t, l.AuthorizeMembershipOnly("ghost", "A"))
}
