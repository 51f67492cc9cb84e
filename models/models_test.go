package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification_JSONSerialization(t *testing.T) {
	note := Notification{
		Seq:       7,
		Kind:      NotifyTicketMinted,
		EventID:   "event-123",
		Principal: "alice",
		TicketID:  "tkt_abc",
		Amount:    1500,
		At:        time.Now(),
	}

	jsonData, err := json.Marshal(note)
	require.NoError(t, err)

	var unmarshaled Notification
	err = json.Unmarshal(jsonData, &unmarshaled)
	require.NoError(t, err)

	assert.Equal(t, note.Seq, unmarshaled.Seq)
	assert.Equal(t, note.Kind, unmarshaled.Kind)
	assert.Equal(t, note.EventID, unmarshaled.EventID)
	assert.Equal(t, note.Principal, unmarshaled.Principal)
	assert.Equal(t, note.TicketID, unmarshaled.TicketID)
	assert.Equal(t, note.Amount, unmarshaled.Amount)
	assert.WithinDuration(t, note.At, unmarshaled.At, time.Second)
}

func TestNotification_EmptyFieldsOmitted(t *testing.T) {
	// Kill-switch notifications carry no principal, ticket or amount; the
	// wire form must not leak empty placeholders.
	note := Notification{
		Seq:     1,
		Kind:    NotifyPolicyDeactivated,
		EventID: "event-123",
		At:      time.Now(),
	}

	jsonData, err := json.Marshal(note)
	require.NoError(t, err)

	assert.NotContains(t, string(jsonData), "principal")
	assert.NotContains(t, string(jsonData), "ticket_id")
	assert.NotContains(t, string(jsonData), "amount")
}

func TestTicketInfo_NoHolderField(t *testing.T) {
	info := TicketInfo{
		TicketID: "tkt_abc",
		EventID:  "event-123",
	}

	jsonData, err := json.Marshal(info)
	require.NoError(t, err)

	assert.NotContains(t, string(jsonData), "holder")
}
