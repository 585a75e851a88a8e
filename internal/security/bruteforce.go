package security

import (
	"sync"
	"time"
)

const (
	// baseLockout is the lockout duration at multiplier 1
	baseLockout = 15 * time.Minute

	// maxBackoffMultiplier caps lockout escalation
	maxBackoffMultiplier = 32

	// attemptMaxAge is how long a failed-attempt record survives before the
	// cleanup sweep treats the lockout as resolved
	attemptMaxAge = 24 * time.Hour
)

// failedAttempt tracks consecutive login failures for one ip:username key
type failedAttempt struct {
	count             int
	firstAttempt      time.Time
	lastAttempt       time.Time
	backoffMultiplier int
}

// BruteForceGuard tracks failed login attempts keyed by (client IP, username)
// and computes block status with escalating lockouts. Keying on the pair means
// one IP cannot lock out every username, and spraying one username from many
// IPs never accumulates toward a single block.
type BruteForceGuard struct {
	mu          sync.Mutex
	attempts    map[string]*failedAttempt
	maxAttempts func() int
}

// NewBruteForceGuard creates a guard. maxAttempts is read on every check so
// runtime configuration changes take effect immediately.
func NewBruteForceGuard(maxAttempts func() int) *BruteForceGuard {
	return &BruteForceGuard{
		attempts:    make(map[string]*failedAttempt),
		maxAttempts: maxAttempts,
	}
}

// attemptKey builds the tracking key for an (ip, username) pair
func attemptKey(ip, username string) string {
	return ip + ":" + username
}

// threshold returns the configured attempt limit, falling back to the default
// if the provider returns a non-positive value
func (g *BruteForceGuard) threshold() int {
	if n := g.maxAttempts(); n > 0 {
		return n
	}
	return 5
}

// TrackFailedAttempt records a failed login for the key. Once the key has
// reached the block threshold, each further failure doubles the backoff
// multiplier up to the cap, so retrying while locked only extends the lockout.
func (g *BruteForceGuard) TrackFailedAttempt(ip, username string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := attemptKey(ip, username)
	rec, ok := g.attempts[key]
	if !ok {
		g.attempts[key] = &failedAttempt{
			count:             1,
			firstAttempt:      now,
			lastAttempt:       now,
			backoffMultiplier: 1,
		}
		return
	}

	if rec.count >= g.threshold() {
		rec.backoffMultiplier *= 2
		if rec.backoffMultiplier > maxBackoffMultiplier {
			rec.backoffMultiplier = maxBackoffMultiplier
		}
	}

	rec.count++
	rec.lastAttempt = now
}

// IsBlocked reports whether the key has reached the failure threshold
func (g *BruteForceGuard) IsBlocked(ip, username string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.attempts[attemptKey(ip, username)]
	return ok && rec.count >= g.threshold()
}

// RetryAfter returns how long the caller should wait before retrying.
// Zero when the key is not blocked; otherwise the base lockout scaled by the
// backoff multiplier, which never decreases within a block episode.
func (g *BruteForceGuard) RetryAfter(ip, username string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.attempts[attemptKey(ip, username)]
	if !ok || rec.count < g.threshold() {
		return 0
	}
	return baseLockout * time.Duration(rec.backoffMultiplier)
}

// ClearFailedAttempts deletes the record for the key, resetting both the
// counter and the backoff multiplier. Called after a successful login.
func (g *BruteForceGuard) ClearFailedAttempts(ip, username string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.attempts, attemptKey(ip, username))
}

// sweepStale removes records whose first attempt is older than attemptMaxAge,
// treating stale lockouts as resolved. Returns the number removed.
func (g *BruteForceGuard) sweepStale(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for key, rec := range g.attempts {
		if now.Sub(rec.firstAttempt) > attemptMaxAge {
			delete(g.attempts, key)
			removed++
		}
	}
	return removed
}

// blockedCount returns how many keys are currently at or past the threshold
func (g *BruteForceGuard) blockedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	threshold := g.threshold()
	for _, rec := range g.attempts {
		if rec.count >= threshold {
			n++
		}
	}
	return n
}

// totalFailures sums failure counts across all tracked keys
func (g *BruteForceGuard) totalFailures() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, rec := range g.attempts {
		n += rec.count
	}
	return n
}

// clear drops all tracked attempts
func (g *BruteForceGuard) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempts = make(map[string]*failedAttempt)
}
