package model

// Status is the delivery state of a message as reported by the provider.
type Status string

const (
	Sent      Status = "sent"
	Delivered Status = "delivered"
	Read      Status = "read"
	Failed    Status = "failed"
)

// Message is one persisted conversation record, inbound or locally composed.
// WaID keys the conversation and never changes after insert.
type Message struct {
	ID         string `json:"id"`
	From       string `json:"from"`
	WaID       string `json:"wa_id"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
	Status     Status `json:"status"`
	StatusTime *int64 `json:"status_time,omitempty"`
	Type       string `json:"type"`
}

// Conversation is one row of the conversation list: a counterpart plus its
// most recent message.
type Conversation struct {
	WaID          string `json:"wa_id"`
	LastMessage   string `json:"lastMessage"`
	LastTimestamp int64  `json:"lastTimestamp"`
	From          string `json:"from"`
}
