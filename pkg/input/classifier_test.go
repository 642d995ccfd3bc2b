package input

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func press(b Button, at time.Time) Edge   { return Edge{Button: b, Pressed: true, At: at} }
func release(b Button, at time.Time) Edge { return Edge{Button: b, Pressed: false, At: at} }

func newTestClassifier() *Classifier {
	return NewClassifier(ClassifierConfig{
		LongPressThreshold: 600 * time.Millisecond,
		DebounceWindow:     20 * time.Millisecond,
	})
}

func TestSinglePress(t *testing.T) {
	c := newTestClassifier()

	if ev := c.Feed(press(ButtonA, t0)); ev != nil {
		t.Fatalf("press edge emitted %+v, want nil", ev)
	}
	ev := c.Feed(release(ButtonA, t0.Add(100*time.Millisecond)))
	if ev == nil {
		t.Fatal("release edge emitted nothing")
	}
	if ev.Kind != SinglePress {
		t.Errorf("Kind = %v, want SinglePress", ev.Kind)
	}
	if ev.Button != ButtonA {
		t.Errorf("Button = %v, want A", ev.Button)
	}
	if ev.HeldFor != 100*time.Millisecond {
		t.Errorf("HeldFor = %v, want 100ms", ev.HeldFor)
	}
}

func TestLongPressAtThreshold(t *testing.T) {
	c := newTestClassifier()
	c.Feed(press(ButtonB, t0))
	ev := c.Feed(release(ButtonB, t0.Add(600*time.Millisecond)))
	if ev == nil {
		t.Fatal("release emitted nothing")
	}
	if ev.Kind != LongPress {
		t.Errorf("hold exactly at threshold: Kind = %v, want LongPress", ev.Kind)
	}
}

func TestJustUnderThresholdIsSingle(t *testing.T) {
	c := newTestClassifier()
	c.Feed(press(ButtonB, t0))
	ev := c.Feed(release(ButtonB, t0.Add(599*time.Millisecond)))
	if ev == nil {
		t.Fatal("release emitted nothing")
	}
	if ev.Kind != SinglePress {
		t.Errorf("Kind = %v, want SinglePress", ev.Kind)
	}
}

func TestBounceOnPressCoalesced(t *testing.T) {
	c := newTestClassifier()

	// A real press followed by contact bounce within the window.
	var events int
	for _, e := range []Edge{
		press(ButtonA, t0),
		release(ButtonA, t0.Add(2*time.Millisecond)),
		press(ButtonA, t0.Add(5*time.Millisecond)),
		release(ButtonA, t0.Add(8*time.Millisecond)),
		press(ButtonA, t0.Add(12*time.Millisecond)),
	} {
		if ev := c.Feed(e); ev != nil {
			events++
		}
	}
	if events != 0 {
		t.Fatalf("bounce burst yielded %d events, want 0", events)
	}

	// The real release, well clear of the window.
	ev := c.Feed(release(ButtonA, t0.Add(150*time.Millisecond)))
	if ev == nil {
		t.Fatal("real release emitted nothing")
	}
	if ev.Kind != SinglePress {
		t.Errorf("Kind = %v, want SinglePress", ev.Kind)
	}
}

func TestExactlyOneEventPerCycle(t *testing.T) {
	c := newTestClassifier()

	at := t0
	for cycle := 0; cycle < 5; cycle++ {
		var events int
		if ev := c.Feed(press(ButtonA, at)); ev != nil {
			events++
		}
		at = at.Add(50 * time.Millisecond)
		if ev := c.Feed(release(ButtonA, at)); ev != nil {
			events++
		}
		at = at.Add(50 * time.Millisecond)
		if events != 1 {
			t.Fatalf("cycle %d yielded %d events, want exactly 1", cycle, events)
		}
	}
}

func TestButtonsTrackedIndependently(t *testing.T) {
	c := newTestClassifier()

	c.Feed(press(ButtonA, t0))
	c.Feed(press(ButtonB, t0.Add(10*time.Millisecond)))

	evB := c.Feed(release(ButtonB, t0.Add(800*time.Millisecond)))
	if evB == nil || evB.Kind != LongPress || evB.Button != ButtonB {
		t.Fatalf("B release = %+v, want long press on B", evB)
	}

	evA := c.Feed(release(ButtonA, t0.Add(850*time.Millisecond)))
	if evA == nil || evA.Kind != LongPress || evA.Button != ButtonA {
		t.Fatalf("A release = %+v, want long press on A", evA)
	}
}

func TestReleaseWithoutPressIgnored(t *testing.T) {
	c := newTestClassifier()

	// Repeated release at the resting level is not a transition.
	if ev := c.Feed(release(ButtonA, t0)); ev != nil {
		t.Fatalf("release without press emitted %+v", ev)
	}
}

func TestRepeatedPressLevelIgnored(t *testing.T) {
	c := newTestClassifier()
	c.Feed(press(ButtonA, t0))
	if ev := c.Feed(press(ButtonA, t0.Add(100*time.Millisecond))); ev != nil {
		t.Fatalf("repeated press level emitted %+v", ev)
	}
	ev := c.Feed(release(ButtonA, t0.Add(200*time.Millisecond)))
	if ev == nil {
		t.Fatal("release after repeated press emitted nothing")
	}
	if ev.HeldFor != 200*time.Millisecond {
		t.Errorf("HeldFor = %v, want 200ms (measured from first press)", ev.HeldFor)
	}
}

func TestParseButton(t *testing.T) {
	for _, tc := range []struct {
		id   string
		want Button
	}{
		{"A", ButtonA}, {"a", ButtonA}, {"btn0", ButtonA},
		{"B", ButtonB}, {"b", ButtonB}, {"btn1", ButtonB},
	} {
		got, err := ParseButton(tc.id)
		if err != nil {
			t.Errorf("ParseButton(%q) failed: %v", tc.id, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseButton(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}

	if _, err := ParseButton("btn9"); err == nil {
		t.Error("ParseButton(btn9) should fail")
	}
}
