package registry

import (
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// breakerTripThreshold is the number of consecutive failures that opens a host's breaker.
const breakerTripThreshold = 5

// breakers holds one circuit breaker per registry host.
type breakers struct {
	mu  sync.RWMutex
	m   map[string]*circuit.Breaker
	new func() *circuit.Breaker
}

func newBreakers() *breakers {
	return &breakers{
		m: make(map[string]*circuit.Breaker),
		new: func() *circuit.Breaker {
			expBackoff := backoff.NewExponentialBackOff()
			expBackoff.InitialInterval = 30 * time.Second
			expBackoff.MaxInterval = 5 * time.Minute
			expBackoff.Multiplier = 2.0
			expBackoff.Reset()

			return circuit.NewBreakerWithOptions(&circuit.Options{
				BackOff:    expBackoff,
				ShouldTrip: circuit.ThresholdTripFunc(breakerTripThreshold),
			})
		},
	}
}

// get returns or creates the breaker for host.
func (b *breakers) get(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, ok := b.m[host]
	b.mu.RUnlock()
	if ok {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if breaker, ok := b.m[host]; ok {
		return breaker
	}
	breaker = b.new()
	b.m[host] = breaker
	return breaker
}

// states reports "open" or "closed" per known host.
func (b *breakers) states() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]string, len(b.m))
	for host, breaker := range b.m {
		if breaker.Tripped() {
			out[host] = "open"
		} else {
			out[host] = "closed"
		}
	}
	return out
}

// hostOf extracts the breaker key from a request URL.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
