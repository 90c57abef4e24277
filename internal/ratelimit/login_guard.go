package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/lottery-ticketing/internal/config"
)

// Dimension names of the login counters.
const (
	EmailPerDay = "email-per-day"
	IPPerDay    = "ip-per-day"
	IPPer10Min  = "ip-per-10-min"
)

// LoginGuard combines the three login counters.  A nil Redis client gives a
// guard that never blocks and never records.
type LoginGuard struct {
	emailDay *Counter
	ipDay    *Counter
	ip10Min  *Counter
}

func NewLoginGuard(rdb redis.Scripter, cfg config.LoginLimitConfig) *LoginGuard {
	if rdb == nil {
		return &LoginGuard{}
	}
	return &LoginGuard{
		emailDay: NewCounter(rdb, cfg.Prefix, EmailPerDay, cfg.EmailPerDay, cfg.DayWindow, cfg.Block),
		ipDay:    NewCounter(rdb, cfg.Prefix, IPPerDay, cfg.IPPerDay, cfg.DayWindow, cfg.Block),
		ip10Min:  NewCounter(rdb, cfg.Prefix, IPPer10Min, cfg.IPPer10Min, cfg.TenMinutes, cfg.Block),
	}
}

func (g *LoginGuard) enabled() bool { return g != nil && g.emailDay != nil }

type probe struct {
	counter *Counter
	key     string
}

func (g *LoginGuard) probes(email, ip string) []probe {
	email = strings.ToLower(strings.TrimSpace(email))
	return []probe{
		{g.emailDay, email},
		{g.ipDay, ip},
		{g.ip10Min, email + "_" + ip},
	}
}

// RetryAfter returns how long the caller must wait: the largest retry of
// the three dimensions.  Dimensions that could not be read are reported in
// err but do not hide a block reported by the others.
func (g *LoginGuard) RetryAfter(ctx context.Context, email, ip string) (int, error) {
	if !g.enabled() {
		return 0, nil
	}
	ps := g.probes(email, ip)
	retries := make([]int, len(ps))
	errs := make([]error, len(ps))
	var wg sync.WaitGroup
	for i, p := range ps {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			res, err := p.counter.Get(ctx, p.key)
			if err != nil {
				errs[i] = err
				return
			}
			retries[i] = RetrySeconds(res, p.counter.Points())
		}(i, p)
	}
	wg.Wait()

	longest := 0
	for _, r := range retries {
		if r > longest {
			longest = r
		}
	}
	return longest, errors.Join(errs...)
}

// Penalize consumes one point in every dimension after a failed login.
// All three are attempted even when some fail.
func (g *LoginGuard) Penalize(ctx context.Context, email, ip string) error {
	if !g.enabled() {
		return nil
	}
	ps := g.probes(email, ip)
	errs := make([]error, len(ps))
	var wg sync.WaitGroup
	for i, p := range ps {
		wg.Add(1)
		go func(i int, p probe) {
			defer wg.Done()
			_, errs[i] = p.counter.Consume(ctx, p.key)
		}(i, p)
	}
	wg.Wait()
	return errors.Join(errs...)
}
