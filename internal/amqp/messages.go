package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage announces one committed store write. It carries only
// the coordinates of the document; the consumer re-reads the current
// data from the store, so a stale or duplicated message can never
// export stale fields.
type ChangeMessage struct {
	Principal  string    `json:"principal"`
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Op         string    `json:"op"` // append, update, delete
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(principal, collection, id, op string) *ChangeMessage {
	return &ChangeMessage{
		Principal:  principal,
		Collection: collection,
		ID:         id,
		Op:         op,
		Timestamp:  time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
