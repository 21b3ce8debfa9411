package otp

import (
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	"placement-portal/internal/utils/crypto"
)

// DefaultTTL is how long an issued code stays redeemable.
const DefaultTTL = 10 * time.Minute

type entry struct {
	code   string
	expiry time.Time
}

// Registry maps an email to its single pending verification code.
//
// One Registry is created per process and injected into every component
// that issues or redeems codes. Every operation runs under one mutex, so
// issue, redeem and revoke are atomic with respect to each other: a redeem
// that races a re-issue sees either the old entry or the new one, never a
// mix, and a stale code fails once the new one has been stored.
//
// Expired entries are not swept; they are dropped when looked up or
// overwritten by the next issue.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	gen     func() (string, error)
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithGenerator overrides the code generator.
func WithGenerator(gen func() (string, error)) Option {
	return func(r *Registry) { r.gen = gen }
}

// NewRegistry creates an empty registry. ttl <= 0 means DefaultTTL.
func NewRegistry(ttl time.Duration, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		gen:     crypto.GenerateOTP,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Issue generates a fresh code for email, replacing any pending one, and
// returns it for delivery.
func (r *Registry) Issue(email string) (string, error) {
	code, err := r.gen()
	if err != nil {
		return "", err
	}

	key := normalize(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[key] = entry{code: code, expiry: r.now().Add(r.ttl)}
	return code, nil
}

// Redeem consumes the pending code for email. The entry is deleted on
// success and on expiry; a mismatch leaves it in place.
func (r *Registry) Redeem(email, code string) error {
	return r.lookup(email, code, true)
}

// Check validates code like Redeem but keeps the entry on success.
func (r *Registry) Check(email, code string) error {
	return r.lookup(email, code, false)
}

// Revoke drops the pending entry for email only if it still holds code.
// It is used to roll back an Issue whose delivery failed without clobbering
// a newer code issued concurrently.
func (r *Registry) Revoke(email, code string) {
	key := normalize(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok && e.code == code {
		delete(r.entries, key)
	}
}

// Len reports how many entries are stored, expired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) lookup(email, code string, consume bool) error {
	key := normalize(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return ErrNotFound
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(strings.TrimSpace(code))) != 1 {
		return ErrMismatch
	}
	if r.now().After(e.expiry) {
		delete(r.entries, key)
		return ErrExpired
	}
	if consume {
		delete(r.entries, key)
	}
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
