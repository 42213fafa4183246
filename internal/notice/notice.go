// Package notice implements the transient notification banner.
package notice

import (
	"sync"
	"time"
)

// DefaultTimeout is how long a notice stays visible unless dismissed.
const DefaultTimeout = 3 * time.Second

// Severity classifies a notice.
type Severity int

const (
	// Success marks a confirmed operation.
	Success Severity = iota
	// Error marks a failed operation.
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "success"
}

// Notice is a single banner message.
type Notice struct {
	ID       uint64
	Message  string
	Severity Severity
	ShownAt  time.Time
}

// Option configures a Banner.
type Option func(*Banner)

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(b *Banner) {
		b.now = now
	}
}

// Banner holds at most one open notice.
type Banner struct {
	mu      sync.Mutex
	timeout time.Duration
	now     func() time.Time
	seq     uint64
	current Notice
	open    bool
}

// NewBanner creates a banner whose notices expire after timeout.
// A non-positive timeout selects DefaultTimeout.
func NewBanner(timeout time.Duration, opts ...Option) *Banner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	b := &Banner{
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Timeout returns the auto-dismiss interval.
func (b *Banner) Timeout() time.Duration {
	return b.timeout
}

// Show replaces the current notice and returns the new one.
func (b *Banner) Show(message string, severity Severity) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	b.current = Notice{
		ID:       b.seq,
		Message:  message,
		Severity: severity,
		ShownAt:  b.now(),
	}
	b.open = true
	return b.current
}

// Current returns the open notice, if any. Expired notices are closed here.
func (b *Banner) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return Notice{}, false
	}
	if b.now().Sub(b.current.ShownAt) >= b.timeout {
		b.open = false
		return Notice{}, false
	}
	return b.current, true
}

// Dismiss closes the current notice.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
}

// DismissID closes the current notice only if it has the given id.
// Returns true if a notice was closed.
func (b *Banner) DismissID(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open || b.current.ID != id {
		return false
	}
	b.open = false
	return true
}
