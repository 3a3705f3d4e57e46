package relay

import (
	"encoding/json"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/store"
)

// ChangeMessage announces that one user's collection changed on some
// instance. It carries no data; receivers reload from the database.
type ChangeMessage struct {
	Instance   string           `json:"instance"`
	Collection store.Collection `json:"collection"`
	Owner      string           `json:"owner"`
	Timestamp  time.Time        `json:"timestamp"`
}

func NewChangeMessage(instance string, coll store.Collection, owner string) *ChangeMessage {
	return &ChangeMessage{
		Instance:   instance,
		Collection: coll,
		Owner:      owner,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
