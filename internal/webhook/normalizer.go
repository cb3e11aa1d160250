package webhook

import (
	"log/slog"
	"strconv"
)

// Event is one normalized unit of work derived from a payload: either a new
// message or a delivery-status change.
type Event interface {
	isEvent()
}

// MessageEvent describes one inbound message. WaID is derived once from the
// value block's first contact, falling back to the sender.
type MessageEvent struct {
	ID        string
	From      string
	WaID      string
	Text      string
	Timestamp int64
	Type      string
}

// StatusEvent describes a delivery-status change for an already-known message
// id. StatusTime is nil when the payload carried no parseable timestamp.
type StatusEvent struct {
	ID         string
	Status     string
	StatusTime *int64
}

func (MessageEvent) isEvent() {}
func (StatusEvent) isEvent()  {}

// Normalize flattens a decoded payload into events, preserving payload order:
// entries, then changes, then messages before statuses within each change.
// A message whose timestamp does not parse is skipped and logged; the rest of
// the batch is unaffected. A status with an unparseable timestamp is still
// emitted, without a status time.
func Normalize(p *Payload) []Event {
	if p == nil || p.MetaData == nil {
		return nil
	}

	var events []Event
	for _, entry := range p.MetaData.Entry {
		for _, change := range entry.Changes {
			val := change.Value

			waID := ""
			if len(val.Contacts) > 0 {
				waID = val.Contacts[0].WaID
			}

			for _, msg := range val.Messages {
				ts, err := strconv.ParseInt(msg.Timestamp, 10, 64)
				if err != nil {
					slog.Warn("skipping message with invalid timestamp",
						"id", msg.ID, "timestamp", msg.Timestamp)
					continue
				}

				text := ""
				if msg.Text != nil {
					text = msg.Text.Body
				}

				cid := waID
				if cid == "" {
					cid = msg.From
				}

				events = append(events, MessageEvent{
					ID:        msg.ID,
					From:      msg.From,
					WaID:      cid,
					Text:      text,
					Timestamp: ts,
					Type:      msg.Type,
				})
			}

			for _, st := range val.Statuses {
				var statusTime *int64
				if ts, err := strconv.ParseInt(st.Timestamp, 10, 64); err == nil {
					statusTime = &ts
				} else if st.Timestamp != "" {
					slog.Warn("status has invalid timestamp, applying without status time",
						"id", st.ID, "timestamp", st.Timestamp)
				}

				events = append(events, StatusEvent{
					ID:         st.ID,
					Status:     st.Status,
					StatusTime: statusTime,
				})
			}
		}
	}
	return events
}
