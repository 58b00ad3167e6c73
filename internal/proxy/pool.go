// Package proxy rotates outbound fetches of the development backend across proxies.
package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped
const DefaultCooldown = 5 * time.Minute

// ProxyPool hands out proxies round-robin, skipping ones that failed recently
type ProxyPool struct {
	proxies  []*url.URL
	index    int
	mu       sync.Mutex
	failed   map[string]time.Time
	cooldown time.Duration
}

// NewProxyPool parses the proxy URLs and returns a pool over them.
// Entries without a scheme are treated as http proxies.
func NewProxyPool(proxies []string) (*ProxyPool, error) {
	pool := &ProxyPool{
		failed:   make(map[string]time.Time),
		cooldown: DefaultCooldown,
	}
	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", raw)
		}
		pool.proxies = append(pool.proxies, u)
	}
	return pool, nil
}

// Size returns the number of configured proxies
func (p *ProxyPool) Size() int {
	return len(p.proxies)
}

// GetNext returns the next healthy proxy, or nil when the pool is empty.
// If every proxy is cooling down, the next one in order is returned anyway.
func (p *ProxyPool) GetNext() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	for range p.proxies {
		proxy := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failTime, failed := p.failed[proxy.String()]
		if !failed {
			return proxy
		}
		if time.Since(failTime) >= p.cooldown {
			delete(p.failed, proxy.String())
			return proxy
		}
	}

	proxy := p.proxies[p.index]
	p.index = (p.index + 1) % len(p.proxies)
	return proxy
}

// MarkFailed skips proxy for the cooldown period
func (p *ProxyPool) MarkFailed(proxy *url.URL) {
	if proxy == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy.String()] = time.Now()
}

// MarkHealthy clears the failure status of a proxy
func (p *ProxyPool) MarkHealthy(proxy *url.URL) {
	if proxy == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy.String())
}
