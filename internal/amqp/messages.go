package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// DepositSubmittedMessage announces a newly stored deposit record. It only
// carries the id; consumers read the record from the database.
type DepositSubmittedMessage struct {
	RecordID  string    `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDepositSubmittedMessage creates a message stamped with the current time.
func NewDepositSubmittedMessage(recordID string) *DepositSubmittedMessage {
	return &DepositSubmittedMessage{
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DepositSubmittedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DepositSubmittedMessageFromJSON parses a message and rejects one without a record id.
func DepositSubmittedMessageFromJSON(data []byte) (*DepositSubmittedMessage, error) {
	var msg DepositSubmittedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RecordID == "" {
		return nil, errors.New("message has no record_id")
	}
	return &msg, nil
}
