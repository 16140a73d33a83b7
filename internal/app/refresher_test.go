package app

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestNewRefresher_RejectsBadSchedule(t *testing.T) {
	if _, err := NewRefresher("every so often", func() {}, nil, nil); err == nil {
		t.Fatalf("NewRefresher returned nil error for a bad schedule")
	}
}

func TestRefresherTick_SkipsDuringBackoff(t *testing.T) {
	var fired atomic.Int32
	var failures atomic.Int32
	r, err := NewRefresher("@every 1h", func() { fired.Add(1) }, func() int { return int(failures.Load()) }, nil)
	if err != nil {
		t.Fatalf("NewRefresher returned error: %v", err)
	}
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	r.tick()
	if fired.Load() != 1 {
		t.Fatalf("first tick fired %d times, want 1", fired.Load())
	}

	failures.Store(2) // 8s backoff
	clock = clock.Add(5 * time.Second)
	r.tick()
	if fired.Load() != 1 {
		t.Fatalf("tick inside backoff fired")
	}

	clock = clock.Add(5 * time.Second)
	r.tick()
	if fired.Load() != 2 {
		t.Fatalf("tick after backoff fired %d times, want 2", fired.Load())
	}

	failures.Store(0)
	clock = clock.Add(time.Second)
	r.tick()
	if fired.Load() != 3 {
		t.Fatalf("tick without failures fired %d times, want 3", fired.Load())
	}
}

func TestRefresher_StartStop(t *testing.T) {
	var fired atomic.Int32
	r, err := NewRefresher("@every 1s", func() { fired.Add(1) }, nil, nil)
	if err != nil {
		t.Fatalf("NewRefresher returned error: %v", err)
	}
	r.Start()
	deadline := time.Now().Add(3 * time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	r.Stop()
	if fired.Load() == 0 {
		t.Fatalf("refresher never fired")
	}
}
