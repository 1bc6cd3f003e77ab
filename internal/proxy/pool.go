package proxy

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped
const DefaultCooldown = 5 * time.Minute

// Pool rotates through a list of proxies, skipping ones that failed recently
type Pool struct {
	proxies  []string
	index    int
	cooldown time.Duration
	mu       sync.Mutex
	failed   map[string]time.Time
}

// NewPool creates a Pool from a list of proxy URLs
func NewPool(proxies []string) *Pool {
	return &Pool{
		proxies:  proxies,
		cooldown: DefaultCooldown,
		failed:   make(map[string]time.Time),
	}
}

// Parse builds a Pool from a comma separated list, as given to --proxy.
// An empty list yields a pool whose Next always returns "".
func Parse(list string) *Pool {
	var proxies []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return NewPool(proxies)
}

// Len returns the number of configured proxies
func (p *Pool) Len() int {
	return len(p.proxies)
}

// Next returns the next healthy proxy. When every proxy is cooling down the
// next one in rotation is returned anyway.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	start := p.index
	for {
		candidate := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		if failTime, ok := p.failed[candidate]; ok {
			if time.Since(failTime) < p.cooldown {
				if p.index == start {
					return candidate
				}
				continue
			}
			delete(p.failed, candidate)
		}

		return candidate
	}
}

// MarkFailed marks a proxy as failed so it will be skipped for a while
func (p *Pool) MarkFailed(proxy string) {
	if proxy == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = time.Now()
}

// MarkHealthy clears the failure status of a proxy
func (p *Pool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}

// ProxyFunc returns an http.Transport proxy function that rotates through
// the pool per request, or nil when no proxies are configured.
func (p *Pool) ProxyFunc() func(*http.Request) (*url.URL, error) {
	if p == nil || len(p.proxies) == 0 {
		return nil
	}
	return func(*http.Request) (*url.URL, error) {
		return url.Parse(p.Next())
	}
}
