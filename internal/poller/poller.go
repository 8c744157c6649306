package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bulknepal/bulknepal/internal/market"
)

// Source supplies the two polled resources. Implemented by the upstream
// proxy client on the server and by the backend API client on the dashboard.
type Source interface {
	MarketStatus(ctx context.Context) (market.Status, error)
	HomePage(ctx context.Context) (*market.Snapshot, error)
}

// State is what subscribers observe: the last good status and snapshot,
// the last poll error (empty when the last poll succeeded) and whether the
// very first poll is still outstanding. Snapshot values are replaced
// wholesale and never mutated after publication.
type State struct {
	Status   *market.Status
	Snapshot *market.Snapshot
	Err      string
	Loading  bool
}

// Poller drives the two fixed-interval poll loops. Each resource carries an
// in-flight gate (a tick that fires while a request is outstanding is
// skipped) and a sequence number (a response older than the last applied
// one is discarded), so a slow response can never overwrite a newer one.
type Poller struct {
	source         Source
	statusInterval time.Duration
	marketInterval time.Duration
	logger         *zap.Logger
	broadcaster    *Broadcaster

	mu    sync.RWMutex
	state State

	statusBusy    atomic.Bool
	marketBusy    atomic.Bool
	statusSeq     atomic.Uint64
	marketSeq     atomic.Uint64
	statusApplied uint64
	marketApplied uint64
}

func New(source Source, statusInterval, marketInterval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		source:         source,
		statusInterval: statusInterval,
		marketInterval: marketInterval,
		logger:         logger,
		broadcaster:    NewBroadcaster(),
		state:          State{Loading: true},
	}
}

// Run polls until the context is cancelled. The first fetch of each
// resource fires immediately, then on every tick.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller starting",
		zap.Duration("statusInterval", p.statusInterval),
		zap.Duration("marketInterval", p.marketInterval),
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.loop(ctx, p.statusInterval, p.pollStatus)
	}()
	go func() {
		defer wg.Done()
		p.loop(ctx, p.marketInterval, p.pollMarket)
	}()
	wg.Wait()

	p.logger.Info("poller stopped")
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, poll func(context.Context)) {
	poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll(ctx)
		}
	}
}

// Current returns the latest observed state.
func (p *Poller) Current() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Subscribe registers for state updates. The returned cancel func must be
// called when the consumer goes away.
func (p *Poller) Subscribe() (<-chan State, func()) {
	return p.broadcaster.Subscribe()
}

func (p *Poller) pollStatus(ctx context.Context) {
	if !p.statusBusy.CompareAndSwap(false, true) {
		p.logger.Debug("status poll still in flight, skipping tick")
		return
	}
	defer p.statusBusy.Store(false)

	seq := p.statusSeq.Add(1)
	status, err := p.source.MarketStatus(ctx)
	p.applyStatus(seq, status, err)
}

func (p *Poller) pollMarket(ctx context.Context) {
	if !p.marketBusy.CompareAndSwap(false, true) {
		p.logger.Debug("market poll still in flight, skipping tick")
		return
	}
	defer p.marketBusy.Store(false)

	seq := p.marketSeq.Add(1)
	snap, err := p.source.HomePage(ctx)
	p.applyMarket(seq, snap, err)
}

func (p *Poller) applyStatus(seq uint64, status market.Status, err error) {
	p.mu.Lock()
	if seq <= p.statusApplied {
		p.mu.Unlock()
		p.logger.Debug("discarding stale status response", zap.Uint64("seq", seq))
		return
	}
	p.statusApplied = seq

	if err != nil {
		// Stale-but-available: the previous status stays readable.
		p.state.Err = err.Error()
	} else {
		p.state.Status = &status
		p.state.Err = ""
	}
	p.state.Loading = false
	st := p.state
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("status poll failed", zap.Error(err))
	}
	p.broadcaster.publish(st)
}

func (p *Poller) applyMarket(seq uint64, snap *market.Snapshot, err error) {
	p.mu.Lock()
	if seq <= p.marketApplied {
		p.mu.Unlock()
		p.logger.Debug("discarding stale market response", zap.Uint64("seq", seq))
		return
	}
	p.marketApplied = seq

	if err != nil {
		p.state.Err = err.Error()
	} else {
		p.state.Snapshot = snap
		p.state.Err = ""
	}
	p.state.Loading = false
	st := p.state
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("market poll failed", zap.Error(err))
	}
	p.broadcaster.publish(st)
}
