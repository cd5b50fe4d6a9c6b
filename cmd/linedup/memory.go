package main

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// memorySampleInterval is the interval at which the heap is sampled.
const memorySampleInterval = 100 * time.Millisecond

// peakMemory samples the heap allocation of the process while a scan runs
// and keeps the highest value seen.
type peakMemory struct {
	peak     atomic.Uint64
	stopChan chan struct{}
	doneChan chan struct{}
}

// samplePeakMemory starts sampling until [peakMemory.Stop] is called or the
// context is canceled.
func samplePeakMemory(ctx context.Context, interval time.Duration) *peakMemory {
	p := &peakMemory{
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	p.sample()

	go p.run(ctx, interval)

	return p
}

// Stop ends the sampling and returns the peak heap allocation in bytes. It
// takes one last sample, so a scan ending between ticks is still covered.
func (p *peakMemory) Stop() uint64 {
	select {
	case <-p.stopChan:
	default:
		close(p.stopChan)
	}
	<-p.doneChan

	p.sample()

	return p.peak.Load()
}

func (p *peakMemory) run(ctx context.Context, interval time.Duration) {
	defer close(p.doneChan)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sample()
		}
	}
}

func (p *peakMemory) sample() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	for {
		peak := p.peak.Load()
		if m.HeapAlloc <= peak || p.peak.CompareAndSwap(peak, m.HeapAlloc) {
			return
		}
	}
}
