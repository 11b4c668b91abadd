package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("entity")

	first := gen.Next()
	second := gen.Next()

	if first != "entity-1" || second != "entity-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}

func TestIDGeneratorCanReset(t *testing.T) {
	gen := NewIDGenerator("resource")
	_ = gen.Next()
	gen.SetCounter(0)

	if next := gen.Next(); next != "resource-1" {
		t.Fatalf("expected resource-1 after reset, got %q", next)
	}
}

func TestFixturesAreDeterministicallyDistinct(t *testing.T) {
	first := NewUser()
	second := NewUser()
	if first.ID == second.ID || first.Email == second.Email {
		t.Fatalf("expected distinct user fixtures, got %q and %q", first.ID, second.ID)
	}

	booking := NewBooking(WithBookingStatus("PendingApproval"))
	if booking.Status != "PendingApproval" {
		t.Fatalf("expected option override, got %s", booking.Status)
	}
	if !booking.End.After(booking.Start) {
		t.Fatalf("expected positive booking window, got %v - %v", booking.Start, booking.End)
	}

	series := NewSeries()
	if series.Status != "PendingApproval" || series.Frequency != "Weekly" {
		t.Fatalf("unexpected series defaults: %+v", series)
	}
	if !series.EndDate.After(series.FirstDate) {
		t.Fatalf("expected series date range, got %v - %v", series.FirstDate, series.EndDate)
	}
}
