package api

import (
	chat "github.com/example/roomiez/domain/chat"
	"github.com/example/roomiez/modules/roommate"
)

// ErrorResponse is the standard error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// FriendActionRequest targets another user in the friend workflow.
type FriendActionRequest struct {
	UserID string `json:"user_id"`
}

// FriendRequestsResponse lists pending requests in both directions.
type FriendRequestsResponse struct {
	Incoming []roommate.RequestView `json:"incoming"`
	Outgoing []roommate.RequestView `json:"outgoing"`
}

// HistoryResponse is the conversation history between two users.
type HistoryResponse struct {
	Messages []chat.View `json:"messages"`
	Total    int         `json:"total"`
}

// UnreadResponse reports the unread count for one conversation.
type UnreadResponse struct {
	UserID string `json:"user_id"`
	Unread int64  `json:"unread"`
}

// wsInbound is the frame read from a WebSocket client.
type wsInbound struct {
	Type     string `json:"type"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
}
