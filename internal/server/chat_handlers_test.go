package server

import (
	"fmt"
	"net/http"
	"testing"

	"voidline/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationFlowOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	alice := createUser(t, s.db, "chatalice", models.RoleUser)
	bob := createUser(t, s.db, "chatbob", models.RoleUser)
	eve := createUser(t, s.db, "chateve", models.RoleUser)

	app := fiber.New()
	app.Post("/conversations", asUser(alice.ID, s.CreateConversation))
	app.Post("/conversations/:id/messages", asUser(alice.ID, s.SendMessage))
	app.Get("/conversations/:id/messages", asUser(bob.ID, s.GetMessages))
	app.Get("/conversations/:id/messages/as-eve", asUser(eve.ID, s.GetMessages))
	app.Delete("/conversations/:id", asUser(bob.ID, s.LeaveConversation))

	resp := doJSON(t, app, http.MethodPost, "/conversations", jsonBody(t, map[string]any{
		"participant_ids": []uint{bob.ID},
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var conv models.Conversation
	decodeJSON(t, resp, &conv)
	require.NotZero(t, conv.ID)

	msgResp := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/conversations/%d/messages", conv.ID),
		jsonBody(t, map[string]string{"content": "hey bob"}))
	require.Equal(t, http.StatusCreated, msgResp.StatusCode)
	_ = msgResp.Body.Close()

	t.Run("participant reads messages", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/conversations/%d/messages", conv.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Messages []models.Message `json:"messages"`
		}
		decodeJSON(t, resp, &body)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "hey bob", body.Messages[0].Content)
	})

	t.Run("outsider sees nothing at all", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/conversations/%d/messages/as-eve", conv.ID), nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("departed participant loses access", func(t *testing.T) {
		leaveResp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/conversations/%d", conv.ID), nil)
		require.Equal(t, http.StatusOK, leaveResp.StatusCode)
		_ = leaveResp.Body.Close()

		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/conversations/%d/messages", conv.ID), nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
