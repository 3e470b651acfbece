package amqp

import "testing"

func TestMovementEventRoundTrip(t *testing.T) {
	ev := NewMovementEvent(EventCreated, 7, "2025-06", 1250, "manual")
	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := MovementEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != EventCreated || got.ID != 7 || got.Month != "2025-06" || got.AmountCents != 1250 || got.Origin != "manual" {
		t.Fatalf("unexpected event after round trip: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to survive round trip")
	}
}

func TestMovementEventValidate(t *testing.T) {
	cases := []struct {
		name string
		ev   MovementEvent
		ok   bool
	}{
		{"created", MovementEvent{Type: EventCreated, ID: 1}, true},
		{"updated", MovementEvent{Type: EventUpdated, ID: 2}, true},
		{"deleted", MovementEvent{Type: EventDeleted, ID: 3}, true},
		{"unknown type", MovementEvent{Type: "archived", ID: 1}, false},
		{"zero id", MovementEvent{Type: EventCreated, ID: 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ev.Validate()
			if tc.ok && err != nil {
				t.Errorf("expected ok, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestMovementEventFromJSONInvalid(t *testing.T) {
	if _, err := MovementEventFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
