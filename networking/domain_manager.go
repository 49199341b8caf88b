package networking

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rafabd1/LeakHound/utils"
)

// Scope decides which discovered URLs a scan follows.
type Scope string

const (
	ScopeSame       Scope = "same"
	ScopeSubdomains Scope = "subdomains"
	ScopeAll        Scope = "all"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeSame:
		return ScopeSame, nil
	case ScopeSubdomains:
		return ScopeSubdomains, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", utils.NewError(utils.ConfigError, fmt.Sprintf("unknown scope %q (want same, subdomains or all)", s), nil)
}

type DomainStats struct {
	ProcessedURLs       int
	FailedURLs          int
	SuccessfulURLs      int
	LastAccessTime      time.Time
	AverageResponseTime time.Duration
	TotalBlocks         int
}

// DomainManager tracks the scan's root hosts, temporarily blocked hosts
// and per-host fetch statistics.
type DomainManager struct {
	scope          Scope
	roots          map[string]struct{}
	blockedDomains map[string]time.Time
	domainStats    map[string]*DomainStats
	now            func() time.Time
	mu             sync.RWMutex
}

func NewDomainManager() *DomainManager {
	return &DomainManager{
		scope:          ScopeSame,
		roots:          make(map[string]struct{}),
		blockedDomains: make(map[string]time.Time),
		domainStats:    make(map[string]*DomainStats),
		now:            time.Now,
	}
}

// SetScope replaces the scope policy and the root hosts derived from urls.
func (dm *DomainManager) SetScope(scope Scope, urls []string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.scope = scope
	dm.roots = make(map[string]struct{})
	for _, u := range urls {
		if host, err := utils.ExtractDomain(u); err == nil {
			dm.roots[strings.ToLower(host)] = struct{}{}
		}
	}
}

// InScope reports whether target may be followed from the scan roots.
func (dm *DomainManager) InScope(target string) bool {
	host, err := utils.ExtractDomain(target)
	if err != nil {
		return false
	}
	host = strings.ToLower(host)

	dm.mu.RLock()
	defer dm.mu.RUnlock()

	if dm.scope == ScopeAll {
		return true
	}
	for root := range dm.roots {
		if host == root {
			return true
		}
		if dm.scope == ScopeSubdomains && strings.HasSuffix(host, "."+registrable(root)) {
			return true
		}
		if dm.scope == ScopeSubdomains && host == registrable(root) {
			return true
		}
	}
	return false
}

// registrable drops a leading "www." so subdomain scope covers siblings of
// the www host.
func registrable(host string) string {
	return strings.TrimPrefix(host, "www.")
}

func (dm *DomainManager) AddBlockedDomain(domain string, duration time.Duration) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.blockedDomains[domain] = dm.now().Add(duration)
	dm.statsNoLock(domain).TotalBlocks++
}

func (dm *DomainManager) IsBlocked(domain string) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	expiry, exists := dm.blockedDomains[domain]
	if !exists {
		return false
	}
	if dm.now().After(expiry) {
		delete(dm.blockedDomains, domain)
		return false
	}
	return true
}

func (dm *DomainManager) statsNoLock(domain string) *DomainStats {
	s, ok := dm.domainStats[domain]
	if !ok {
		s = &DomainStats{}
		dm.domainStats[domain] = s
	}
	return s
}

func (dm *DomainManager) RecordURLProcessed(domain string, success bool, responseTime time.Duration) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	stats := dm.statsNoLock(domain)
	stats.ProcessedURLs++
	stats.LastAccessTime = dm.now()

	if !success {
		stats.FailedURLs++
		return
	}
	stats.SuccessfulURLs++
	if stats.AverageResponseTime == 0 {
		stats.AverageResponseTime = responseTime
	} else {
		stats.AverageResponseTime = (stats.AverageResponseTime*3 + responseTime) / 4
	}
}

func (dm *DomainManager) Stats(domain string) (DomainStats, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	s, ok := dm.domainStats[domain]
	if !ok {
		return DomainStats{}, false
	}
	return *s, true
}

func (dm *DomainManager) Domains() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	out := make([]string, 0, len(dm.domainStats))
	for d := range dm.domainStats {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (dm *DomainManager) Reset() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.blockedDomains = make(map[string]time.Time)
	dm.domainStats = make(map[string]*DomainStats)
}
