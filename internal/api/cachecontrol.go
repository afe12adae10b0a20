package api

import (
	"fmt"
	"time"

	"github.com/rafaelordanini/ANP-GRU/internal/cache"
	"github.com/rafaelordanini/ANP-GRU/internal/config"
)

// headerPolicy computes the Cache-Control value published with successful
// payloads. The TTL counts down to the next publication refresh, so a CDN in
// front of the service expires right when fresh numbers may exist.
type headerPolicy struct {
	policy cache.Policy
	swr    int
	clock  Clock
}

func newHeaderPolicy(cfg config.Config, clock Clock) headerPolicy {
	return headerPolicy{
		policy: cache.Policy{
			RefreshHour: cfg.Cache.RefreshHour,
			Location:    cfg.RefreshLocation(),
			Min:         time.Duration(cfg.Cache.MinSeconds) * time.Second,
			Max:         time.Duration(cfg.Cache.MaxSeconds) * time.Second,
		},
		swr:   cfg.Cache.StaleWhileRevalidateSeconds,
		clock: clock,
	}
}

// directive returns the header value for a success response. Forced
// refreshes read no-store so intermediaries never pin a bypass.
func (p headerPolicy) directive(refresh bool) string {
	if refresh {
		return "no-store"
	}
	ttl := int(p.policy.TTL(p.clock.Now()).Seconds())
	return fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d", ttl, p.swr)
}
