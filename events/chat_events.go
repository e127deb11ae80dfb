package events

import (
	"github.com/go-monolith/mono/pkg/helper"

	chat "github.com/example/roomiez/domain/chat"
)

// MessageSentEvent is emitted after a private message has been persisted.
// The delivery module consumes it to push the message to the receiver's
// live connection, if one is registered.
type MessageSentEvent struct {
	Message chat.View `json:"message"`
}

// MessageSentV1 is published by the chat module once per persisted message.
var MessageSentV1 = helper.EventDefinition[MessageSentEvent](
	"chat",
	"MessageSent",
	"v1",
)
