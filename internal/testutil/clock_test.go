// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	initial := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(initial)
	if got := clock.Now(); !got.Equal(initial) {
		t.Errorf("Now() = %v, want %v", got, initial)
	}

	clock.Advance(90 * time.Minute)
	if got, want := clock.Now(), initial.Add(90*time.Minute); !got.Equal(want) {
		t.Errorf("after Advance, Now() = %v, want %v", got, want)
	}

	later := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(later)
	if got := clock.Now(); !got.Equal(later) {
		t.Errorf("after Set, Now() = %v, want %v", got, later)
	}
}

func TestFakeClock_DefaultTime(t *testing.T) {
	t.Parallel()

	a, b := NewFakeClock(time.Time{}), NewFakeClock(time.Time{})
	if a.Now().IsZero() || !a.Now().Equal(b.Now()) {
		t.Errorf("zero initial time should give a fixed reference, got %v and %v", a.Now(), b.Now())
	}
}

func TestFakeClock_Concurrent(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	start := clock.Now()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			clock.Advance(time.Second)
			_ = clock.Now()
		})
	}
	wg.Wait()

	if got := clock.Now().Sub(start); got != 10*time.Second {
		t.Errorf("elapsed = %v, want 10s", got)
	}
}
