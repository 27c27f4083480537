package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/five82/harmonic/internal/state"
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

func TestStartPoller_RecordsOutcomesAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var store state.Store
	var calls atomic.Int32
	refresh := func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("backend down")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := StartPoller(ctx, &store, refresh, 5*time.Millisecond, nil)

	deadline := time.After(2 * time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("poller made %d calls, want at least 2", calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	snap := store.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastPollError != nil {
		t.Fatalf("after recovery: failures=%d err=%v", snap.ConsecutiveFailures, snap.LastPollError)
	}
}

func TestStartPoller_CountsFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	var store state.Store
	var calls atomic.Int32
	refresh := func(context.Context) error {
		calls.Add(1)
		return errors.New("backend down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := StartPoller(ctx, &store, refresh, time.Millisecond, nil)

	deadline := time.After(2 * time.Second)
	for !store.Snapshot().IsOffline() {
		select {
		case <-deadline:
			t.Fatal("store never went offline")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done

	if got := store.Snapshot().LastPollError; got == nil || got.Error() != "backend down" {
		t.Fatalf("LastPollError = %v", got)
	}
}
