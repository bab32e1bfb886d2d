package oss

import (
	"gitlab.com/akita/lrusim/clock"
)

// A SamplingPolicy decides after which requests the Manager publishes a
// snapshot.
type SamplingPolicy interface {
	ShouldSample(numResolved uint64, now clock.SimClock) bool
}

type never struct{}

// Never returns a policy that never samples.
func Never() SamplingPolicy {
	return never{}
}

func (never) ShouldSample(uint64, clock.SimClock) bool {
	return false
}

type everyN struct {
	n uint64
}

// EveryNRequests samples after every n-th resolved request. n == 0 never
// samples.
func EveryNRequests(n uint64) SamplingPolicy {
	if n == 0 {
		return Never()
	}
	return everyN{n: n}
}

func (p everyN) ShouldSample(numResolved uint64, _ clock.SimClock) bool {
	return numResolved > 0 && numResolved%p.n == 0
}

type everyInterval struct {
	interval int64
	next     clock.SimClock
}

// EveryInterval samples the first time the clock reaches each multiple of
// intervalNs nanoseconds. Several multiples passed by one request produce a
// single sample.
func EveryInterval(intervalNs int64) SamplingPolicy {
	if intervalNs <= 0 {
		return Never()
	}
	return &everyInterval{
		interval: intervalNs,
		next:     clock.FromNanos(intervalNs),
	}
}

func (p *everyInterval) ShouldSample(_ uint64, now clock.SimClock) bool {
	if now.Before(p.next) {
		return false
	}

	periods := now.Nanos()/p.interval + 1
	p.next = clock.FromNanos(periods * p.interval)

	return true
}
