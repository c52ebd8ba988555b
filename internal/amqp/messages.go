package amqp

import (
	"time"

	"github.com/sugawarayuuta/sonnet"
)

// ExpenseChangedMessage announces that an expense was created or
// deleted. It carries only the id and a monotonic version; consumers
// reload what they need from the store.
type ExpenseChangedMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseChangedMessage builds a change message stamped with the
// current time.
func NewExpenseChangedMessage(id, version int64) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON encodes the message for the wire.
func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return sonnet.Marshal(m)
}

// ExpenseChangedMessageFromJSON decodes a wire message.
func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := sonnet.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
