package ecto

import "testing"

func TestChannelPushPop(t *testing.T) {
	c := NewChannel()
	if c.Size() != 0 {
		t.Fatalf("expected empty channel, got size %d", c.Size())
	}
	if err := c.Push(42); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if c.Size() != 1 {
		t.Fatalf("expected size 1 after push, got %d", c.Size())
	}
	v, err := c.Pop()
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty channel after pop, got size %d", c.Size())
	}
}

func TestChannelPushIntoFullIsInvariantViolation(t *testing.T) {
	c := NewChannel()
	if err := c.Push(1); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	err := c.Push(2)
	if err == nil {
		t.Fatalf("expected error pushing into full channel")
	}
	if _, ok := err.(*InvariantViolation); !ok {
		t.Fatalf("expected *InvariantViolation, got %T", err)
	}
}

func TestChannelPopFromEmptyIsInvariantViolation(t *testing.T) {
	c := NewChannel()
	_, err := c.Pop()
	if err == nil {
		t.Fatalf("expected error popping empty channel")
	}
	if _, ok := err.(*InvariantViolation); !ok {
		t.Fatalf("expected *InvariantViolation, got %T", err)
	}
}

func TestPushValuePopValueRoundTrip(t *testing.T) {
	c := NewChannel()
	if err := PushValue(c, "hello"); err != nil {
		t.Fatalf("PushValue failed: %v", err)
	}
	v, err := PopValue[string](c)
	if err != nil {
		t.Fatalf("PopValue failed: %v", err)
	}
	if v != "hello" {
		t.Fatalf("expected hello, got %q", v)
	}
}

func TestPopValueTypeMismatch(t *testing.T) {
	c := NewChannel()
	if err := PushValue(c, 7); err != nil {
		t.Fatalf("PushValue failed: %v", err)
	}
	_, err := PopValue[string](c)
	if err == nil {
		t.Fatalf("expected a type-mismatch error")
	}
	if _, ok := err.(*InvariantViolation); !ok {
		t.Fatalf("expected *InvariantViolation, got %T", err)
	}
}

func TestSeedFillsEmptyChannel(t *testing.T) {
	c := NewChannel()
	if err := c.Seed(3); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if c.Size() != 1 {
		t.Fatalf("expected size 1 after seed, got %d", c.Size())
	}
}
