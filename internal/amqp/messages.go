package amqp

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// RecordsChangedMessage announces a write to the record store. It carries
// no record data; consumers reload from the store.
type RecordsChangedMessage struct {
	Kind      string    `json:"kind"`
	RecordID  string    `json:"record_id,omitempty"`
	Year      int       `json:"year,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordsChangedMessage(kind, recordID string, year int) *RecordsChangedMessage {
	return &RecordsChangedMessage{
		Kind:      kind,
		RecordID:  recordID,
		Year:      year,
		Timestamp: time.Now().UTC(),
	}
}

func (m *RecordsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordsChangedMessageFromJSON(data []byte) (*RecordsChangedMessage, error) {
	var msg RecordsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("records changed message without kind")
	}
	return &msg, nil
}
