package models

import "testing"

func TestCanTransitionTo(t *testing.T) {
	t.Parallel()

	allowed := []struct {
		from, to LoadStatus
	}{
		{LoadStatusAvailable, LoadStatusAccepted},
		{LoadStatusAccepted, LoadStatusPickedUp},
		{LoadStatusPickedUp, LoadStatusInTransit},
		{LoadStatusPickedUp, LoadStatusDelivered},
		{LoadStatusInTransit, LoadStatusDelivered},
		{LoadStatusDelivered, LoadStatusCompleted},
		{LoadStatusAvailable, LoadStatusCancelled},
		{LoadStatusInTransit, LoadStatusCancelled},
		{LoadStatusDelivered, LoadStatusCancelled},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransitionTo(tt.to) {
			t.Errorf("%q -> %q should be allowed", tt.from, tt.to)
		}
	}

	forbidden := []struct {
		from, to LoadStatus
	}{
		{LoadStatusAvailable, LoadStatusPickedUp},
		{LoadStatusAvailable, LoadStatusDelivered},
		{LoadStatusAccepted, LoadStatusInTransit},
		{LoadStatusAccepted, LoadStatusAvailable},
		{LoadStatusDelivered, LoadStatusInTransit},
		{LoadStatusCompleted, LoadStatusCancelled},
		{LoadStatusCancelled, LoadStatusAvailable},
		{LoadStatusCompleted, LoadStatusDelivered},
	}
	for _, tt := range forbidden {
		if tt.from.CanTransitionTo(tt.to) {
			t.Errorf("%q -> %q should be rejected", tt.from, tt.to)
		}
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []LoadStatus{LoadStatusCompleted, LoadStatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []LoadStatus{LoadStatusAvailable, LoadStatusAccepted, LoadStatusPickedUp, LoadStatusInTransit, LoadStatusDelivered} {
		if s.Terminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	for _, s := range []LoadStatus{LoadStatusAvailable, LoadStatusAccepted, LoadStatusPickedUp, LoadStatusInTransit, LoadStatusDelivered, LoadStatusCompleted, LoadStatusCancelled} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if LoadStatus("pending").Valid() {
		t.Error(`"pending" should not be valid`)
	}
}
