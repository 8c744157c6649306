package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bulknepal/bulknepal/internal/market"
)

type fakeSource struct {
	mu         sync.Mutex
	status     market.Status
	statusErr  error
	snapshot   *market.Snapshot
	marketErr  error
	block      chan struct{} // when set, MarketStatus blocks until closed
	statusHits int
}

func (f *fakeSource) MarketStatus(ctx context.Context) (market.Status, error) {
	f.mu.Lock()
	block := f.block
	f.statusHits++
	status, err := f.status, f.statusErr
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return status, err
}

func (f *fakeSource) HomePage(ctx context.Context) (*market.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, f.marketErr
}

func newTestPoller(src Source) *Poller {
	logger, _ := zap.NewDevelopment()
	return New(src, 10*time.Second, 10*time.Second, logger)
}

func TestPollStatus_Success(t *testing.T) {
	src := &fakeSource{status: market.Status{IsOpen: true, UpdatedAt: "now"}}
	p := newTestPoller(src)

	p.pollStatus(context.Background())

	st := p.Current()
	if st.Loading {
		t.Error("loading must be false after first completion")
	}
	if st.Status == nil || !st.Status.IsOpen {
		t.Errorf("status not applied: %+v", st.Status)
	}
	if st.Err != "" {
		t.Errorf("unexpected error: %q", st.Err)
	}
}

func TestPollFailure_RetainsLastGood(t *testing.T) {
	src := &fakeSource{
		status:   market.Status{IsOpen: true, UpdatedAt: "t1"},
		snapshot: &market.Snapshot{ListedCompanies: []market.TickerItem{{Symbol: "NABIL"}}},
	}
	p := newTestPoller(src)

	p.pollStatus(context.Background())
	p.pollMarket(context.Background())

	src.mu.Lock()
	src.statusErr = errors.New("Failed to fetch market status")
	src.marketErr = errors.New("Failed to fetch live indices")
	src.mu.Unlock()

	p.pollStatus(context.Background())
	p.pollMarket(context.Background())

	st := p.Current()
	if st.Status == nil || st.Status.UpdatedAt != "t1" {
		t.Errorf("last-good status must remain readable, got %+v", st.Status)
	}
	if st.Snapshot == nil || len(st.Snapshot.ListedCompanies) != 1 {
		t.Errorf("last-good snapshot must remain readable, got %+v", st.Snapshot)
	}
	if st.Err == "" {
		t.Error("error string must be stored")
	}
	if st.Loading {
		t.Error("loading must be false after a failed poll")
	}
}

func TestPollFailure_FirstLoad(t *testing.T) {
	src := &fakeSource{statusErr: errors.New("boom")}
	p := newTestPoller(src)

	p.pollStatus(context.Background())

	st := p.Current()
	if st.Status != nil {
		t.Error("no status should exist after a failed first poll")
	}
	if st.Loading {
		t.Error("loading must become false even when the first poll fails")
	}
}

func TestInFlightGate_SkipsOverlappingTick(t *testing.T) {
	block := make(chan struct{})
	src := &fakeSource{block: block, status: market.Status{IsOpen: true}}
	p := newTestPoller(src)

	done := make(chan struct{})
	go func() {
		p.pollStatus(context.Background())
		close(done)
	}()

	// Wait for the first poll to be in flight.
	deadline := time.After(time.Second)
	for {
		src.mu.Lock()
		hits := src.statusHits
		src.mu.Unlock()
		if hits == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first poll never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// A tick firing now must be skipped, not queued.
	p.pollStatus(context.Background())
	src.mu.Lock()
	hits := src.statusHits
	src.mu.Unlock()
	if hits != 1 {
		t.Fatalf("overlapping tick was not skipped, source hit %d times", hits)
	}

	close(block)
	<-done
}

func TestStaleResponseDiscarded(t *testing.T) {
	src := &fakeSource{}
	p := newTestPoller(src)

	// Apply seq 2 first (the fast, newer response), then a late seq 1.
	p.applyStatus(2, market.Status{UpdatedAt: "newer"}, nil)
	p.applyStatus(1, market.Status{UpdatedAt: "older"}, nil)

	st := p.Current()
	if st.Status.UpdatedAt != "newer" {
		t.Errorf("stale response overwrote newer state: %+v", st.Status)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	src := &fakeSource{status: market.Status{IsOpen: true}}
	p := newTestPoller(src)

	ch, cancel := p.Subscribe()
	defer cancel()

	p.pollStatus(context.Background())

	select {
	case st := <-ch:
		if st.Status == nil || !st.Status.IsOpen {
			t.Errorf("unexpected published state: %+v", st)
		}
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	src := &fakeSource{status: market.Status{IsOpen: true}}
	p := newTestPoller(src)

	_, cancel := p.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer+4; i++ {
			p.applyStatus(uint64(i+1), market.Status{IsOpen: true}, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{status: market.Status{IsOpen: true}, snapshot: &market.Snapshot{}}
	logger, _ := zap.NewDevelopment()
	p := New(src, 10*time.Millisecond, 10*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
