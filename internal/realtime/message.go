package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope handed to the external delivery service.
type Message struct {
	ID         uuid.UUID       `json:"id"`
	Kind       string          `json:"kind"`
	Recipients []uuid.UUID     `json:"recipients"`
	Payload    json.RawMessage `json:"payload"`
	SentAt     time.Time       `json:"sent_at"`
}
