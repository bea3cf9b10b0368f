package entity

import "time"

// Message is immutable after creation except for ReadAt, which moves once
// from nil to a timestamp and never changes afterwards.
type Message struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id"`
	SenderName string     `json:"sender_name,omitempty"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at"`
}

// IsUnreadFor reports whether m is addressed to viewerID and not read yet.
func (m Message) IsUnreadFor(viewerID string) bool {
	return m.ReceiverID == viewerID && m.ReadAt == nil
}

// MarkRead sets ReadAt if it is still nil. It returns false for messages
// that were already read.
func (m *Message) MarkRead(at time.Time) bool {
	if m.ReadAt != nil {
		return false
	}
	t := at
	m.ReadAt = &t
	return true
}

// Feed event kinds, matching row-level change notifications.
const (
	MessageInserted = "INSERT"
	MessageUpdated  = "UPDATE"
)

// MessageEvent is delivered by the push feed.
type MessageEvent struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}
