package activity

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"placement-portal/cmd/server/ctxkeys"
	"placement-portal/cmd/server/handlers/httperr"
	"placement-portal/internal/logger"
	"placement-portal/internal/services/activity"
	"placement-portal/internal/services/auth"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const (
	// WSClosePolicyViolation represents WebSocket close code for policy violation
	WSClosePolicyViolation = 1008

	wsWriteTimeout     = 10 * time.Second
	wsPingInterval     = 25 * time.Second
	wsPingWriteTimeout = 5 * time.Second

	msgFailedToClose = "failed to close WebSocket connection"
)

var errMissingLocals = errors.New("websocket locals not set by upgrade handler")

// Hub is the subscription side of the activity hub
type Hub interface {
	Subscribe(connULID ulid.ULID) (*activity.Subscriber, func())
	Unsubscribe(connULID ulid.ULID)
}

// TokenVerifier checks a session token and returns its claims
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// WebSocketHandlers streams account events to admin dashboards
type WebSocketHandlers struct {
	hub           Hub
	verifier      TokenVerifier
	maxSessionSec int
	pingInterval  time.Duration
}

// NewWebSocketHandlers creates new WebSocket handlers
func NewWebSocketHandlers(hub Hub, verifier TokenVerifier, maxSessionSec int) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:           hub,
		verifier:      verifier,
		maxSessionSec: maxSessionSec,
		pingInterval:  wsPingInterval,
	}
}

// WSUpgrade authenticates the ?token= query parameter and admits admins only
// @Summary Live account activity
// @Description Websocket stream of account events. Browsers cannot set headers on upgrade, so the session token travels in the query string.
// @Tags activity
// @Param token query string true "Admin session token"
// @Success 101 {object} activity.Event
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Router /ws/activity [get]
func (h *WebSocketHandlers) WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.New(400, httperr.KindInvalidInput, "WebSocket upgrade required"))
	}

	token := c.Query("token")
	if token == "" {
		logger.L().Warn("missing token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.New(401, httperr.KindUnauthorized, "Missing token"))
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		logger.L().Warn("invalid token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path(), "error", err)
		return httperr.Fail(httperr.New(401, httperr.KindUnauthorized, "Invalid token"))
	}

	if claims.Role != auth.RoleAdmin {
		logger.L().Warn("non-admin websocket upgrade", "handler", "WSUpgrade", "user_id", claims.UserID, "role", claims.Role)
		return httperr.Fail(httperr.ErrForbidden)
	}

	c.Locals(ctxkeys.UserIDKey, claims.UserID)
	c.Locals(ctxkeys.UserEmailKey, claims.Email)
	c.Locals(ctxkeys.UserRoleKey, string(claims.Role))
	c.Locals(ctxkeys.ParentCtxKey, c.UserContext())

	return c.Next()
}

// WSActivityStream forwards hub events to one connection until either side closes
func (h *WebSocketHandlers) WSActivityStream(c *websocket.Conn) {
	conn, parentCtx, err := newWSConnection(c)
	if err != nil {
		logger.L().Error("rejecting websocket connection", "error", err)
		closeConn(c)
		return
	}

	ctx, cancelCtx := context.WithCancel(parentCtx)
	defer cancelCtx()

	sub, unsubscribe := h.hub.Subscribe(conn.connULID)
	defer unsubscribe()

	logger.L().Info("activity stream opened", "user_id", conn.userID, "conn_id", conn.connID)

	timer := time.AfterFunc(time.Duration(h.maxSessionSec)*time.Second, func() {
		logger.L().Info("activity stream session timeout", "user_id", conn.userID, "conn_id", conn.connID)
		conn.closeWith(c, WSClosePolicyViolation, "session timeout")
		closeConn(c)
		cancelCtx()
	})
	defer timer.Stop()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()
	go conn.keepAlive(ctx, c, ping)

	go conn.forward(ctx, c, sub)

	conn.drain(c)

	logger.L().Info("activity stream closed", "user_id", conn.userID, "conn_id", conn.connID)
}

// wsConnection tracks one stream. A conn allows a single writer at a time,
// so every write goes through writeMu.
type wsConnection struct {
	userID   string
	connULID ulid.ULID
	connID   string

	writeMu sync.Mutex
}

func newWSConnection(c *websocket.Conn) (*wsConnection, context.Context, error) {
	userID, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok || userID == "" {
		return nil, nil, errMissingLocals
	}
	parentCtx, ok := c.Locals(ctxkeys.ParentCtxKey).(context.Context)
	if !ok {
		return nil, nil, errMissingLocals
	}

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	return &wsConnection{
		userID:   userID,
		connULID: connULID,
		connID:   connULID.String(),
	}, parentCtx, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Debug(msgFailedToClose, "error", err)
	}
}

// write runs fn under the write lock with a fresh write deadline.
func (w *wsConnection) write(c *websocket.Conn, timeout time.Duration, fn func() error) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return fn()
}

func (w *wsConnection) closeWith(c *websocket.Conn, code int, reason string) {
	err := w.write(c, wsWriteTimeout, func() error {
		return c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	})
	if err != nil {
		logger.L().Warn("failed to send close message", "error", err, "conn_id", w.connID)
	}
}

func (w *wsConnection) keepAlive(ctx context.Context, c *websocket.Conn, ping *time.Ticker) {
	for {
		select {
		case <-ping.C:
			err := w.write(c, wsPingWriteTimeout, func() error {
				return c.WriteMessage(websocket.PingMessage, nil)
			})
			if err != nil {
				logger.L().Debug("ping failed", "error", err, "conn_id", w.connID)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// forward writes every event from sub until the subscription or ctx ends.
func (w *wsConnection) forward(ctx context.Context, c *websocket.Conn, sub *activity.Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in activity sender", "error", r, "conn_id", w.connID)
		}
	}()

	for {
		select {
		case ev, ok := <-sub.Ch:
			if !ok {
				return
			}
			if err := w.write(c, wsWriteTimeout, func() error { return c.WriteJSON(ev) }); err != nil {
				logger.L().Warn("failed to write activity event", "error", err, "conn_id", w.connID)
				return
			}
		case <-sub.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain reads until the client goes away. Clients are not expected to send
// anything, but reading is what surfaces close frames.
func (w *wsConnection) drain(c *websocket.Conn) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.L().Warn("activity stream read error", "error", err, "conn_id", w.connID)
			}
			return
		}
	}
}

// LogWSConnections logs every upgrade attempt on the activity stream. The
// token is verified so the logged user id cannot be spoofed.
func LogWSConnections(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			user := ""
			if token := c.Query("token"); token != "" {
				if claims, err := verifier.Verify(token); err == nil {
					user = claims.UserID
				}
			}
			logger.L().Info("WebSocket upgrade attempt", "ip", c.IP(), "user", user)
		}
		return c.Next()
	}
}
