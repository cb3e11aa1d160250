package webhook

import (
	"testing"
)

func msgEvent(t *testing.T, ev Event) MessageEvent {
	t.Helper()

	m, ok := ev.(MessageEvent)
	if !ok {
		t.Fatalf("expected MessageEvent, got %T", ev)
	}
	return m
}

func statusEvent(t *testing.T, ev Event) StatusEvent {
	t.Helper()

	s, ok := ev.(StatusEvent)
	if !ok {
		t.Fatalf("expected StatusEvent, got %T", ev)
	}
	return s
}

func TestNormalize_NilAndEmptyPayloads(t *testing.T) {
	t.Parallel()

	if got := Normalize(nil); got != nil {
		t.Fatalf("expected no events for nil payload, got %v", got)
	}
	if got := Normalize(&Payload{}); got != nil {
		t.Fatalf("expected no events without metaData, got %v", got)
	}
	if got := Normalize(&Payload{MetaData: &MetaData{}}); got != nil {
		t.Fatalf("expected no events for empty entry list, got %v", got)
	}
}

func TestNormalize_MessageFields(t *testing.T) {
	t.Parallel()

	p := &Payload{MetaData: &MetaData{Entry: []Entry{{
		Changes: []Change{{Value: Value{
			Contacts: []Contact{{WaID: "919900112233"}},
			Messages: []RawMessage{{
				ID:        "m1",
				From:      "919900112233",
				Text:      &TextBody{Body: "hi"},
				Timestamp: "1000",
				Type:      "text",
			}},
		}}},
	}}}}

	events := Normalize(p)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	m := msgEvent(t, events[0])
	if m.ID != "m1" || m.From != "919900112233" || m.WaID != "919900112233" {
		t.Fatalf("unexpected identifiers: %+v", m)
	}
	if m.Text != "hi" {
		t.Fatalf("expected text %q, got %q", "hi", m.Text)
	}
	if m.Timestamp != 1000 {
		t.Fatalf("expected timestamp 1000, got %d", m.Timestamp)
	}
	if m.Type != "text" {
		t.Fatalf("expected type text, got %q", m.Type)
	}
}

func TestNormalize_WaIDFallsBackToSender(t *testing.T) {
	t.Parallel()

	p := &Payload{MetaData: &MetaData{Entry: []Entry{{
		Changes: []Change{{Value: Value{
			Messages: []RawMessage{{ID: "m1", From: "sender-7", Timestamp: "5"}},
		}}},
	}}}}

	events := Normalize(p)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if m := msgEvent(t, events[0]); m.WaID != "sender-7" {
		t.Fatalf("expected wa_id to fall back to sender, got %q", m.WaID)
	}
}

func TestNormalize_MissingTextDefaultsToEmpty(t *testing.T) {
	t.Parallel()

	p := &Payload{MetaData: &MetaData{Entry: []Entry{{
		Changes: []Change{{Value: Value{
			Messages: []RawMessage{{ID: "m1", From: "a", Timestamp: "5"}},
		}}},
	}}}}

	if m := msgEvent(t, Normalize(p)[0]); m.Text != "" {
		t.Fatalf("expected empty text, got %q", m.Text)
	}
}

func TestNormalize_InvalidMessageTimestampSkipsOnlyThatEvent(t *testing.T) {
	t.Parallel()

	p := &Payload{MetaData: &MetaData{Entry: []Entry{{
		Changes: []Change{{Value: Value{
			Messages: []RawMessage{
				{ID: "bad", From: "a", Timestamp: "not-a-number"},
				{ID: "good", From: "a", Timestamp: "42"},
			},
		}}},
	}}}}

	events := Normalize(p)
	if len(events) != 1 {
		t.Fatalf("expected the malformed event to be skipped, got %d events", len(events))
	}
	if m := msgEvent(t, events[0]); m.ID != "good" {
		t.Fatalf("expected surviving event to be %q, got %q", "good", m.ID)
	}
}

func TestNormalize_StatusEvents(t *testing.T) {
	t.Parallel()

	p := &Payload{MetaData: &MetaData{Entry: []Entry{{
		Changes: []Change{{Value: Value{
			Statuses: []RawStatus{
				{ID: "m1", Status: "delivered", Timestamp: "1005"},
				{ID: "m2", Status: "read", Timestamp: "garbage"},
			},
		}}},
	}}}}

	events := Normalize(p)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	s1 := statusEvent(t, events[0])
	if s1.ID != "m1" || s1.Status != "delivered" {
		t.Fatalf("unexpected first status: %+v", s1)
	}
	if s1.StatusTime == nil || *s1.StatusTime != 1005 {
		t.Fatalf("expected status time 1005, got %v", s1.StatusTime)
	}

	// Bad status timestamp keeps the status fact, drops the time.
	s2 := statusEvent(t, events[1])
	if s2.Status != "read" {
		t.Fatalf("expected status read, got %q", s2.Status)
	}
	if s2.StatusTime != nil {
		t.Fatalf("expected nil status time for unparseable timestamp, got %d", *s2.StatusTime)
	}
}

func TestNormalize_PreservesPayloadOrder(t *testing.T) {
	t.Parallel()

	p := &Payload{MetaData: &MetaData{Entry: []Entry{
		{Changes: []Change{
			{Value: Value{
				Messages: []RawMessage{{ID: "m1", From: "a", Timestamp: "1"}},
				Statuses: []RawStatus{{ID: "m1", Status: "delivered", Timestamp: "2"}},
			}},
			{Value: Value{
				Messages: []RawMessage{{ID: "m2", From: "a", Timestamp: "3"}},
			}},
		}},
		{Changes: []Change{
			{Value: Value{
				Statuses: []RawStatus{{ID: "m2", Status: "read", Timestamp: "4"}},
			}},
		}},
	}}}

	events := Normalize(p)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	// Per change: messages first, then statuses; changes and entries in order.
	if m := msgEvent(t, events[0]); m.ID != "m1" {
		t.Fatalf("event 0: expected message m1, got %+v", m)
	}
	if s := statusEvent(t, events[1]); s.ID != "m1" {
		t.Fatalf("event 1: expected status for m1, got %+v", s)
	}
	if m := msgEvent(t, events[2]); m.ID != "m2" {
		t.Fatalf("event 2: expected message m2, got %+v", m)
	}
	if s := statusEvent(t, events[3]); s.ID != "m2" || s.Status != "read" {
		t.Fatalf("event 3: expected read status for m2, got %+v", s)
	}
}
