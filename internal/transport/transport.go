// Package transport defines the contract between the counting engine and
// whatever chat platform delivers messages. The engine never talks to a chat
// SDK directly; it consumes events shaped like Message/DeleteEvent and issues
// best-effort operations through a Connector.
package transport

import (
	"context"
	"errors"
)

// Message is one inbound chat message.
type Message struct {
	GuildID     int64
	ChannelID   int64
	AuthorID    int64
	MessageID   int64
	AuthorIsBot bool
	Body        string
}

// DeleteEvent reports that a message was removed from a channel.
type DeleteEvent struct {
	GuildID   int64
	ChannelID int64
	MessageID int64
}

// Sentinel errors a Connector implementation should surface so callers can
// branch on them. Anything else is treated as a transient transport failure.
var (
	// ErrMissingPermission means the operation is forbidden for this bot in
	// this channel. Delete enforcement downgrades itself when it sees this.
	ErrMissingPermission = errors.New("transport: missing permission")

	// ErrUnknownMessage means the target message no longer exists.
	ErrUnknownMessage = errors.New("transport: unknown message")

	// ErrUnknownChannel means the channel is gone or not visible.
	ErrUnknownChannel = errors.New("transport: unknown channel")
)

// Connector is the outbound half of the chat transport.
//
// All operations are best-effort from the engine's perspective: failures are
// logged, never retried synchronously, and never abort an in-progress state
// mutation. Implementations must be safe for concurrent use.
type Connector interface {
	// RecentMessages returns up to limit messages from the channel,
	// ordered newest first.
	RecentMessages(ctx context.Context, channelID int64, limit int) ([]Message, error)

	// DeleteMessage removes a message by id.
	DeleteMessage(ctx context.Context, channelID, messageID int64) error

	// SendMessage posts body to the channel and returns the new message id.
	SendMessage(ctx context.Context, channelID int64, body string) (int64, error)

	// EditMessage replaces the body of an existing message.
	EditMessage(ctx context.Context, channelID, messageID int64, body string) error
}
