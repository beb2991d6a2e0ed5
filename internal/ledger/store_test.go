package ledger

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ContaSync/CS-Backend/internal/config"
)

func TestAcquireSurfacesPoolExhaustion(t *testing.T) {
	s := &Store{
		cfg: config.Ledger{AcquireTimeoutMS: 20},
		sem: semaphore.NewWeighted(1),
	}

	release, err := s.acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer release()

	// Pool slot is held; the second caller must fail fast as
	// resource_exhausted instead of queuing forever.
	start := time.Now()
	if _, err := s.acquire(context.Background()); err == nil {
		t.Fatal("expected second acquire to fail while the slot is held")
	} else if kind, _ := KindOf(err); kind != KindResourceExhausted {
		t.Fatalf("kind = %q, want %q", kind, KindResourceExhausted)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("acquire blocked %v, want a bounded wait near the configured timeout", elapsed)
	}
}

func TestAcquireReleaseFreesSlot(t *testing.T) {
	s := &Store{
		cfg: config.Ledger{AcquireTimeoutMS: 20},
		sem: semaphore.NewWeighted(1),
	}

	release, err := s.acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()

	release2, err := s.acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestAcquireHonorsCallerCancellation(t *testing.T) {
	s := &Store{
		cfg: config.Ledger{AcquireTimeoutMS: 5000},
		sem: semaphore.NewWeighted(1),
	}

	release, err := s.acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.acquire(ctx); err == nil {
		t.Fatal("expected acquire to fail on a canceled context")
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{"float", 12.5, 12.5, false},
		{"int", 40, 40, false},
		{"string", "33.33", 33.33, false},
		{"zero", 0.0, 0, false},
		{"full", 100.0, 100, false},
		{"nil", nil, 0, true},
		{"negative", -1.0, 0, true},
		{"over", 100.01, 0, true},
		{"garbage", "lots", 0, true},
		{"bool", true, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parsePercent("porcentaje_participacion", tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parsePercent(%v): expected error", tc.in)
				}
				if kind, ok := KindOf(err); !ok || kind != KindInvalidInput {
					t.Fatalf("kind = %q, want %q", kind, KindInvalidInput)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePercent(%v): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("parsePercent(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
