package models

import "time"

const (
	AggregateComplaintPack    = "complaint_pack"
	EventComplaintPackCreated = "complaint_pack.created"
)

// OutboxEntry is an event written in the same transaction as the state
// change it describes, relayed to the message bus afterwards.
type OutboxEntry struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}
