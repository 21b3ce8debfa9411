package activity

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"placement-portal/cmd/server/ctxkeys"
	"placement-portal/cmd/server/testutil"
	"placement-portal/internal/services/activity"
	"placement-portal/internal/services/auth"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

// MockHub implements Hub and counts subscriptions
type MockHub struct {
	mu             sync.Mutex
	subscribers    map[ulid.ULID]*activity.Subscriber
	subscribeCount int
}

func NewMockHub() *MockHub {
	return &MockHub{subscribers: make(map[ulid.ULID]*activity.Subscriber)}
}

func (m *MockHub) Subscribe(connULID ulid.ULID) (*activity.Subscriber, func()) {
	sub := &activity.Subscriber{
		Ch:   make(chan activity.Event, 10),
		Done: make(chan struct{}),
	}
	m.mu.Lock()
	m.subscribers[connULID] = sub
	m.subscribeCount++
	m.mu.Unlock()

	return sub, func() { m.Unsubscribe(connULID) }
}

func (m *MockHub) Unsubscribe(connULID ulid.ULID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subscribers[connULID]; ok {
		close(sub.Ch)
		close(sub.Done)
		delete(m.subscribers, connULID)
	}
}

func (m *MockHub) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

func newTestSigner(t *testing.T) *auth.TokenSigner {
	t.Helper()

	signer, err := auth.NewTokenSigner(testutil.TestJWTSecret, "HS256")
	require.NoError(t, err)
	return signer
}

// SetupUpgradeApp mounts WSUpgrade in front of a plain handler that echoes the
// locals it set, so upgrade decisions can be tested with app.Test.
func SetupUpgradeApp(t *testing.T) *fiber.App {
	t.Helper()

	app := testutil.CreateTestApp(t)
	h := NewWebSocketHandlers(NewMockHub(), newTestSigner(t), 900)

	app.Get("/ws/activity", h.WSUpgrade, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals(ctxkeys.UserIDKey),
			"email":   c.Locals(ctxkeys.UserEmailKey),
			"role":    c.Locals(ctxkeys.UserRoleKey),
		})
	})
	return app
}

// StartStreamServer serves the full upgrade + stream pipeline on a random
// local port and returns the ws:// base URL.
func StartStreamServer(t *testing.T, hub Hub, maxSessionSec int) string {
	t.Helper()

	return StartStreamServerWith(t, NewWebSocketHandlers(hub, newTestSigner(t), maxSessionSec))
}

// StartStreamServerWith serves a preconfigured handler set.
func StartStreamServerWith(t *testing.T, h *WebSocketHandlers) string {
	t.Helper()

	app := testutil.CreateTestApp(t)
	app.Get("/ws/activity", h.WSUpgrade, websocket.New(h.WSActivityStream))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return fmt.Sprintf("ws://%s/ws/activity", ln.Addr().String())
}

// DialAdmin opens an activity stream as an admin.
func DialAdmin(t *testing.T, baseURL string) *gorillaws.Conn {
	t.Helper()

	token := testutil.MustJWT(t, "683cdb8aa96ad71e8e075bd1", "admin@nsec.ac.in", "admin")

	var conn *gorillaws.Conn
	require.Eventually(t, func() bool {
		c, _, err := gorillaws.DefaultDialer.Dial(baseURL+"?token="+token, nil)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 2*time.Second, 20*time.Millisecond, "activity stream should accept an admin")

	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
