package notifications

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHubJoinBroadcastLeave(t *testing.T) {
	h := NewChatHub()

	alice, err := h.Register(1, nil)
	require.NoError(t, err)
	bob, err := h.Register(2, nil)
	require.NoError(t, err)

	h.JoinConversation(1, 10)
	h.JoinConversation(2, 10)
	assert.ElementsMatch(t, []uint{1, 2}, h.ActiveViewers(10))

	drain(alice)
	drain(bob)

	h.BroadcastToConversation(10, ChatEvent{Type: "message", Payload: "hi"})

	var event ChatEvent
	require.NoError(t, json.Unmarshal(<-alice.Send, &event))
	assert.Equal(t, "message", event.Type)
	require.NoError(t, json.Unmarshal(<-bob.Send, &event))
	assert.Equal(t, "message", event.Type)

	h.LeaveConversation(2, 10)
	assert.ElementsMatch(t, []uint{1}, h.ActiveViewers(10))

	h.BroadcastToConversation(10, ChatEvent{Type: "message", Payload: "again"})
	assert.Len(t, alice.Send, 1)
	assert.Len(t, bob.Send, 0, "a departed viewer receives nothing")
}

func TestChatHubMultiDevice(t *testing.T) {
	h := NewChatHub()

	phone, err := h.Register(1, nil)
	require.NoError(t, err)
	laptop, err := h.Register(1, nil)
	require.NoError(t, err)

	h.JoinConversation(1, 10)
	drain(phone)
	drain(laptop)

	h.BroadcastToConversation(10, ChatEvent{Type: "message", Payload: "hi"})
	assert.Len(t, phone.Send, 1)
	assert.Len(t, laptop.Send, 1)

	// Closing one device keeps the user online.
	h.UnregisterClient(phone)
	assert.True(t, h.IsUserOnline(1))

	h.UnregisterClient(laptop)
	assert.False(t, h.IsUserOnline(1))
	assert.Empty(t, h.ActiveViewers(10))
}

func TestChatHubConnectionLimit(t *testing.T) {
	h := NewChatHub()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := h.Register(1, nil)
		require.NoError(t, err)
	}

	_, err := h.Register(1, nil)
	require.Error(t, err)
}

// drain empties a client's send buffer of status chatter.
func drain(c *Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}
