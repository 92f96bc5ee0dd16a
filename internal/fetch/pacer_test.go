package fetch

import (
	"context"
	"testing"
	"time"
)

func TestPacer_SpacesCalls(t *testing.T) {
	p := NewPacer(60 * time.Millisecond)
	ctx := context.Background()
	start := time.Now()
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if first := time.Since(start); first > 30*time.Millisecond {
		t.Fatalf("first wait should be immediate, took %v", first)
	}
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if second := time.Since(start); second < 50*time.Millisecond {
		t.Fatalf("second wait returned after %v, want >= ~60ms", second)
	}
}

func TestPacer_DisabledNeverBlocks(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatal("disabled pacer blocked")
	}
}

func TestPacer_SlowOnlyLengthens(t *testing.T) {
	p := NewPacer(time.Second)
	p.Slow(500 * time.Millisecond)
	if p.Interval() != time.Second {
		t.Fatalf("Slow must not shorten the interval, got %v", p.Interval())
	}
	p.Slow(3 * time.Second)
	if p.Interval() != 3*time.Second {
		t.Fatalf("expected 3s, got %v", p.Interval())
	}
}

func TestPacer_WaitHonoursContext(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
