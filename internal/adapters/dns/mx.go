// Package dns resolves MX records with a local TTL-bounded cache
//
// The cache exists to bound outbound lookups; it is not a resolver. A
// definitive "no MX records" answer is cached like a positive one so repeated
// bad domains do not re-query upstream
package dns

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	perr "cleanse/internal/platform/errors"
)

// Resolver is the lookup seam, satisfied by *net.Resolver
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Config tunes the checker
type Config struct {
	TTL         time.Duration // positive and negative answers share one TTL
	Timeout     time.Duration // per-lookup bound
	MaxEntries  int           // cache size cap; oldest-insert eviction
	DisableIPv6 bool          // unused today, reserved for resolver tuning
}

// DefaultConfig mirrors production tuning
func DefaultConfig() Config {
	return Config{
		TTL:        10 * time.Minute,
		Timeout:    3 * time.Second,
		MaxEntries: 10_000,
	}
}

type entry struct {
	hasMX   bool
	expires time.Time
}

// Checker answers "does this domain accept mail" with caching
type Checker struct {
	res Resolver
	cfg Config
	now func() time.Time

	mu    sync.Mutex
	cache map[string]entry
	order []string // insertion order for cheap eviction
}

// New builds a Checker; a nil resolver uses the system resolver
func New(res Resolver, cfg Config) *Checker {
	if res == nil {
		res = net.DefaultResolver
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	return &Checker{
		res:   res,
		cfg:   cfg,
		now:   time.Now,
		cache: make(map[string]entry),
	}
}

// HasMX reports whether domain publishes at least one MX record
// Lookup errors other than NXDOMAIN surface as provider errors; the caller
// decides whether to degrade
func (c *Checker) HasMX(ctx context.Context, domain string) (bool, error) {
	domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	if domain == "" {
		return false, perr.Formatf("mx check: empty domain")
	}

	if has, ok := c.lookup(domain); ok {
		return has, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	mxs, err := c.res.LookupMX(ctx, domain)
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			// authoritative absence, cacheable
			c.store(domain, false)
			return false, nil
		}
		return false, perr.Wrapf(err, perr.ErrorCodeUnavailable, "mx lookup %s", domain)
	}

	has := len(mxs) > 0
	c.store(domain, has)
	return has, nil
}

func (c *Checker) lookup(domain string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cache[domain]
	if !ok || c.now().After(e.expires) {
		return false, false
	}
	return e.hasMX, true
}

func (c *Checker) store(domain string, hasMX bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[domain]; !exists {
		if len(c.order) >= c.cfg.MaxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.cache, oldest)
		}
		c.order = append(c.order, domain)
	}
	c.cache[domain] = entry{hasMX: hasMX, expires: c.now().Add(c.cfg.TTL)}
}

// CacheLen reports the live entry count, for tests and stats
func (c *Checker) CacheLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}
