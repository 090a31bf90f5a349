package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lms-backend/internal/config"
	"github.com/stemsi/lms-backend/internal/middleware"
	"github.com/stemsi/lms-backend/internal/model"
	"github.com/stemsi/lms-backend/internal/response"
	ws "github.com/stemsi/lms-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live notifications.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// NotificationStream godoc
// WS /ws/v1/notifications?token=...
// Pushes every notification persisted for the caller. Role broadcasts arrive
// as the caller's own inbox row, so the pushed ID can be marked read.
func (h *WSHandler) NotificationStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	channels := []string{config.CacheKey.UserNotifyChannel(claims.UserID)}

	ctx := c.Request.Context()
	sub := h.rdb.Subscribe(ctx, channels...)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Msg("Subscribe failed")
		ws.WriteError(conn, "subscription failed")
		return
	}

	wsLog := h.log.With().Int("user_id", claims.UserID).Str("role", string(claims.Role)).Logger()
	wsLog.Info().Msg("Notification stream connected")

	// gorilla connections support one concurrent writer; all writes happen
	// on this goroutine. The reader only reports pings and disconnects.
	pings := make(chan struct{}, 1)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var req ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if req.Action == ws.ActionPing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	if err := ws.WriteTyped(conn, ws.ReadyResponse{Event: ws.EventReady, Channels: channels}); err != nil {
		return
	}

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			ws.WriteClose(conn, websocket.CloseGoingAway, "")
			return
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		case <-closed:
			wsLog.Debug().Msg("Connection closed")
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var n model.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				wsLog.Warn().Err(err).Msg("Dropping malformed notification")
				continue
			}
			if err := ws.WriteTyped(conn, ws.NotificationEvent{Event: ws.EventNotification, Notification: n}); err != nil {
				return
			}
		}
	}
}
