package transport

import (
	"context"
	"sync"
)

// Memory is an in-process Connector backed by per-channel message slices.
// Tests and the simulate command use it in place of a real chat SDK.
//
// Messages are held newest-first, matching RecentMessages order.
type Memory struct {
	mu       sync.Mutex
	channels map[int64][]Message
	nextID   int64

	deleted []int64

	historyErr map[int64]error
	deleteErr  error
}

// NewMemory creates an empty in-memory connector.
func NewMemory() *Memory {
	return &Memory{
		channels:   make(map[int64][]Message),
		nextID:     1_000_000, // keep synthetic ids away from seeded ones
		historyErr: make(map[int64]error),
	}
}

// Seed prepends messages to a channel's history. Messages are given in
// chronological order; the last one seeded becomes the newest.
func (m *Memory) Seed(channelID int64, msgs ...Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		msg.ChannelID = channelID
		m.channels[channelID] = append([]Message{msg}, m.channels[channelID]...)
	}
}

// FailHistory makes RecentMessages for the channel return err.
func (m *Memory) FailHistory(channelID int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyErr[channelID] = err
}

// FailDeletes makes every DeleteMessage call return err.
func (m *Memory) FailDeletes(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// Deleted returns the ids passed to DeleteMessage, in call order.
func (m *Memory) Deleted() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.deleted))
	copy(out, m.deleted)
	return out
}

// Messages returns the channel's history, newest first.
func (m *Memory) Messages(channelID int64) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.channels[channelID]))
	copy(out, m.channels[channelID])
	return out
}

// RecentMessages implements Connector.
func (m *Memory) RecentMessages(_ context.Context, channelID int64, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.historyErr[channelID]; err != nil {
		return nil, err
	}

	msgs := m.channels[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// DeleteMessage implements Connector.
func (m *Memory) DeleteMessage(_ context.Context, channelID, messageID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}

	msgs := m.channels[channelID]
	for i, msg := range msgs {
		if msg.MessageID == messageID {
			m.channels[channelID] = append(msgs[:i:i], msgs[i+1:]...)
			m.deleted = append(m.deleted, messageID)
			return nil
		}
	}
	return ErrUnknownMessage
}

// SendMessage implements Connector.
func (m *Memory) SendMessage(_ context.Context, channelID int64, body string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	msg := Message{
		ChannelID:   channelID,
		MessageID:   m.nextID,
		AuthorIsBot: true,
		Body:        body,
	}
	m.channels[channelID] = append([]Message{msg}, m.channels[channelID]...)
	return msg.MessageID, nil
}

// EditMessage implements Connector.
func (m *Memory) EditMessage(_ context.Context, channelID, messageID int64, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msgs := m.channels[channelID]
	for i := range msgs {
		if msgs[i].MessageID == messageID {
			msgs[i].Body = body
			return nil
		}
	}
	return ErrUnknownMessage
}
