package websocket

import "github.com/stemsi/lms-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventReady        Event = "ready"
	EventNotification Event = "notification"
	EventPong         Event = "pong"
)

// ReadyResponse is sent once the stream is subscribed.
type ReadyResponse struct {
	Event    Event    `json:"event"`
	Channels []string `json:"channels"`
}

// NotificationEvent carries one live notification.
type NotificationEvent struct {
	Event        Event              `json:"event"`
	Notification model.Notification `json:"notification"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
