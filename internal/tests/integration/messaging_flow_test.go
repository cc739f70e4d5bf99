package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Xeladesign/shok/internal/gateway"
	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/pkg/utils"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, s *stack, method, path, userID, body string, dest interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, s.http+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if dest != nil {
		require.NoError(t, json.Unmarshal(raw, dest), string(raw))
	}
	return resp.StatusCode
}

// client records every frame a WebSocket connection receives.
type client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	frames []gateway.Envelope
}

func dial(t *testing.T, s *stack, userID string) *client {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.ws+"?token="+tokenFor(t, userID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &client{conn: conn}
	go func() {
		for {
			var env gateway.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			c.mu.Lock()
			c.frames = append(c.frames, env)
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *client) send(t *testing.T, event string, data string) {
	t.Helper()
	env := gateway.Envelope{Type: event}
	if data != "" {
		env.Data = json.RawMessage(data)
	}
	require.NoError(t, c.conn.WriteJSON(env))
}

// waitFor returns the first received frame of the given type whose payload
// decodes into dest and satisfies match.
func waitFor[T any](t *testing.T, c *client, event string, match func(T) bool) T {
	t.Helper()
	var found T
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, f := range c.frames {
			if f.Type != event {
				continue
			}
			var v T
			if json.Unmarshal(f.Data, &v) != nil {
				continue
			}
			if match == nil || match(v) {
				found = v
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond, "no matching %s frame", event)
	return found
}

func TestMessagingFlow(t *testing.T) {
	s := setupStack(t)

	// Bob is online with his notification panel open
	bob := dial(t, s, "bob")
	bob.send(t, gateway.EventOpenNotifications, "")
	panel := waitFor[gateway.NotificationsPayload](t, bob, gateway.EventNotifications, nil)
	assert.Empty(t, panel.Items)
	assert.Zero(t, panel.Unread)

	// Alice messages Bob over REST
	var sent struct {
		Message models.Message `json:"message"`
	}
	status := doJSON(t, s, "POST", "/api/chat/messages", "alice", `{"recipientId":"bob","content":"Is the vase still available?"}`, &sent)
	require.Equal(t, http.StatusCreated, status)

	// The notification reaches Bob through the redis feed
	added := waitFor(t, bob, gateway.EventNotification, func(p gateway.NotificationPayload) bool {
		return p.Item.Type == models.NotificationTypeMessage
	})
	assert.Equal(t, "Alice", added.Item.ActorName)
	assert.Equal(t, 1, added.Unread)

	// Bob's inbox shows one unread conversation
	var inbox struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, s, "GET", "/api/chat/conversations", "bob", "", &inbox))
	require.Len(t, inbox.Conversations, 1)
	assert.Equal(t, "alice", inbox.Conversations[0].Partner.ID)
	assert.Equal(t, 1, inbox.Conversations[0].UnreadCount)

	// Opening the conversation marks it read
	bob.send(t, gateway.EventOpenConversation, `{"partnerId":"alice"}`)
	history := waitFor[gateway.HistoryPayload](t, bob, gateway.EventHistory, nil)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, sent.Message.ID, history.Messages[0].ID)

	require.Eventually(t, func() bool {
		var counts struct {
			Messages int64 `json:"messages"`
		}
		doJSON(t, s, "GET", "/api/notifications/aggregate", "bob", "", &counts)
		return counts.Messages == 0
	}, 2*time.Second, 20*time.Millisecond)

	// A live reply from Alice lands in the open conversation
	require.Equal(t, http.StatusCreated, doJSON(t, s, "POST", "/api/chat/messages", "alice", `{"recipientId":"bob","content":"Sending photos"}`, nil))
	waitFor(t, bob, gateway.EventMessage, func(m models.Message) bool {
		return m.Content == "Sending photos"
	})

	// Following produces a follow notification
	require.Equal(t, http.StatusCreated, doJSON(t, s, "POST", "/api/users/bob/follow", "alice", "", nil))
	waitFor(t, bob, gateway.EventNotification, func(p gateway.NotificationPayload) bool {
		return p.Item.Type == models.NotificationTypeFollow && p.Unread == 3
	})

	// Reading the panel clears the badge
	bob.send(t, gateway.EventReadNotifications, "")
	panel = waitFor(t, bob, gateway.EventNotifications, func(p gateway.NotificationsPayload) bool {
		return len(p.Items) == 3 && p.Unread == 0
	})
	for _, item := range panel.Items {
		assert.True(t, item.IsRead)
	}

	var count struct {
		Count int64 `json:"count"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, s, "GET", "/api/notifications/unread-count", "bob", "", &count))
	assert.Zero(t, count.Count)
}

func TestHealthReportsRedis(t *testing.T) {
	s := setupStack(t)

	resp, err := http.Get(s.http + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["redis"])

	s.redis.Close()
	resp2, err := http.Get(s.http + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "error", body.Checks["redis"])
}
