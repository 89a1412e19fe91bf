package handlers

import (
	"testing"
	"time"
)

func TestFloodDetectorTripsAndClears(t *testing.T) {
	t.Parallel()

	d := NewFloodDetector()
	now := time.Now()

	for i := 0; i < 5; i++ {
		if d.Track(1, 100, now.Add(time.Duration(i)*100*time.Millisecond), 5) {
			t.Fatalf("tripped on message %d, want trip only on the 6th", i+1)
		}
	}
	if !d.Track(1, 100, now.Add(500*time.Millisecond), 5) {
		t.Fatal("6th message inside the window did not trip")
	}

	// the trip cleared the window, counting starts over
	if d.Track(1, 100, now.Add(600*time.Millisecond), 5) {
		t.Fatal("tripped immediately after a trip, window was not cleared")
	}
}

func TestFloodDetectorWindowSlides(t *testing.T) {
	t.Parallel()

	d := NewFloodDetector()
	now := time.Now()

	for i := 0; i < 5; i++ {
		d.Track(1, 100, now.Add(time.Duration(i)*time.Second), 5)
	}
	// earliest stamps have aged out of the 4s window by now
	if d.Track(1, 100, now.Add(10*time.Second), 5) {
		t.Fatal("tripped although old messages left the window")
	}
}

func TestFloodDetectorKeysAreIndependent(t *testing.T) {
	t.Parallel()

	d := NewFloodDetector()
	now := time.Now()

	for i := 0; i < 6; i++ {
		d.Track(1, 100, now, 5)
	}
	if d.Track(1, 200, now, 5) {
		t.Fatal("another user tripped by a flooder's counter")
	}
	if d.Track(2, 100, now, 5) {
		t.Fatal("another chat tripped by a flooder's counter")
	}
}

func TestFloodDetectorForget(t *testing.T) {
	t.Parallel()

	d := NewFloodDetector()
	now := time.Now()

	for i := 0; i < 5; i++ {
		d.Track(1, 100, now, 5)
	}
	d.Forget(1)
	if d.Track(1, 100, now, 5) {
		t.Fatal("tripped after chat state was forgotten")
	}
}
