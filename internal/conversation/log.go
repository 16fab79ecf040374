package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/csheth/oeescout/internal/oee"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Message is one exchanged chat entry. Metrics is nil when the entry carries
// no snapshot.
type Message struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Sender    Sender       `json:"sender"`
	Metrics   *oee.Metrics `json:"metrics,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// HasMetrics reports whether a snapshot is attached.
func (m Message) HasMetrics() bool {
	return m.Metrics != nil
}

// NewUserMessage builds a message typed by the operator.
func NewUserMessage(text string) Message {
	return newMessage(text, SenderUser, nil)
}

// NewSystemMessage builds a reply; metrics may be nil.
func NewSystemMessage(text string, metrics *oee.Metrics) Message {
	return newMessage(text, SenderSystem, metrics)
}

func newMessage(text string, sender Sender, metrics *oee.Metrics) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now(),
	}
	if metrics != nil {
		snapshot := *metrics
		msg.Metrics = &snapshot
	}
	return msg
}

// Log is an append-only, chronologically ordered message history. It is not
// safe for concurrent use; a single owner appends to it.
type Log struct {
	messages []Message
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds msg to the end and returns the new length.
func (l *Log) Append(msg Message) int {
	if msg.Metrics != nil {
		snapshot := *msg.Metrics
		msg.Metrics = &snapshot
	}
	l.messages = append(l.messages, msg)
	return len(l.messages)
}

// Len returns the number of recorded messages.
func (l *Log) Len() int {
	return len(l.messages)
}

// LatestWithMetrics returns the most recent message carrying a snapshot.
func (l *Log) LatestWithMetrics() (Message, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].HasMetrics() {
			return copyMessage(l.messages[i]), true
		}
	}
	return Message{}, false
}

// All returns a copy of the full history in display order.
func (l *Log) All() []Message {
	out := make([]Message, len(l.messages))
	for i, msg := range l.messages {
		out[i] = copyMessage(msg)
	}
	return out
}

func copyMessage(msg Message) Message {
	if msg.Metrics != nil {
		snapshot := *msg.Metrics
		msg.Metrics = &snapshot
	}
	return msg
}
