package services

import (
	"testing"
	"time"

	"njforeclose/models"
)

func TestPercentChange(t *testing.T) {
	if got := percentChange(100, 150); got != 50 {
		t.Fatalf("expected 50, got %f", got)
	}
	if got := percentChange(100, 95); got != 5 {
		t.Fatalf("expected 5, got %f", got)
	}
	if got := percentChange(0, 100); got != 0 {
		t.Fatalf("expected 0 to avoid a divide-by-zero, got %f", got)
	}
}

func TestTimelineKindForNewEvent(t *testing.T) {
	cases := []struct {
		stage models.Stage
		want  models.TimelineKind
	}{
		{models.StageAuction, models.TimelineAuctionListed},
		{models.StagePreForeclosure, models.TimelineLisPendensFiled},
		{models.StageSheriffSale, models.TimelineSheriffSaleScheduled},
		{models.StageREO, models.TimelineSheriffSaleScheduled},
	}
	for _, c := range cases {
		if got := timelineKindForNewEvent(c.stage); got != c.want {
			t.Fatalf("timelineKindForNewEvent(%s) = %s, want %s", c.stage, got, c.want)
		}
	}
}

func TestKeyedMutex_SerializesSameKeyAllowsDifferentKeys(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.Lock("key-a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("key-b")
		unlockB()
		close(done)
	}()
	<-done // a lock on a different key must not block behind key-a's holder

	acquired := make(chan struct{})
	go func() {
		unlock := km.Lock("key-a")
		close(acquired)
		unlock()
	}()
	select {
	case <-acquired:
		t.Fatalf("a second Lock on key-a succeeded while the first holder still held it")
	case <-time.After(50 * time.Millisecond):
	}
	unlockA()
	<-acquired // released key-a must become available to the waiter
}
