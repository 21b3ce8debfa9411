package otp

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmail = "a@nsec.ac.in"

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequence returns a generator yielding codes in order.
func sequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func TestRegistry_IssueThenRedeemOnce(t *testing.T) {
	r := NewRegistry(DefaultTTL)

	code, err := r.Issue(testEmail)
	require.NoError(t, err)
	require.Len(t, code, 6)

	assert.NoError(t, r.Redeem(testEmail, code))
	assert.ErrorIs(t, r.Redeem(testEmail, code), ErrNotFound, "a code is single-use")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_MismatchKeepsEntry(t *testing.T) {
	r := NewRegistry(DefaultTTL, WithGenerator(sequence("482913")))

	_, err := r.Issue(testEmail)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Redeem(testEmail, "000000"), ErrMismatch)
	assert.ErrorIs(t, r.Redeem(testEmail, "482914"), ErrMismatch)
	assert.Equal(t, 1, r.Len())

	assert.NoError(t, r.Redeem(testEmail, "482913"), "correct code stays redeemable after a mismatch")
}

func TestRegistry_ReissueInvalidatesPrevious(t *testing.T) {
	r := NewRegistry(DefaultTTL, WithGenerator(sequence("111111", "222222")))

	first, err := r.Issue(testEmail)
	require.NoError(t, err)
	second, err := r.Issue(testEmail)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	assert.ErrorIs(t, r.Redeem(testEmail, first), ErrMismatch)
	assert.NoError(t, r.Redeem(testEmail, second))
}

func TestRegistry_Expiry(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(DefaultTTL, WithClock(clock.Now), WithGenerator(sequence("482913")))

	_, err := r.Issue(testEmail)
	require.NoError(t, err)

	clock.Advance(DefaultTTL)
	assert.NoError(t, r.Check(testEmail, "482913"), "a code is valid up to and including its expiry instant")

	clock.Advance(time.Second)
	assert.ErrorIs(t, r.Redeem(testEmail, "482913"), ErrExpired)
	assert.ErrorIs(t, r.Redeem(testEmail, "482913"), ErrNotFound, "expired entries are dropped on lookup")
}

func TestRegistry_ExpiredMismatchReportsMismatch(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(DefaultTTL, WithClock(clock.Now), WithGenerator(sequence("482913")))

	_, err := r.Issue(testEmail)
	require.NoError(t, err)
	clock.Advance(DefaultTTL + time.Minute)

	assert.ErrorIs(t, r.Redeem(testEmail, "123456"), ErrMismatch)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_CheckDoesNotConsume(t *testing.T) {
	r := NewRegistry(DefaultTTL, WithGenerator(sequence("482913")))

	_, err := r.Issue(testEmail)
	require.NoError(t, err)

	assert.NoError(t, r.Check(testEmail, "482913"))
	assert.NoError(t, r.Check(testEmail, "482913"))
	assert.NoError(t, r.Redeem(testEmail, "482913"))
	assert.ErrorIs(t, r.Check(testEmail, "482913"), ErrNotFound)
}

func TestRegistry_EmailIsCaseInsensitive(t *testing.T) {
	r := NewRegistry(DefaultTTL, WithGenerator(sequence("482913")))

	_, err := r.Issue("  A@NSEC.ac.in ")
	require.NoError(t, err)

	assert.NoError(t, r.Redeem(testEmail, " 482913 "))
}

func TestRegistry_RevokeOnlyMatchingCode(t *testing.T) {
	r := NewRegistry(DefaultTTL, WithGenerator(sequence("111111", "222222")))

	first, _ := r.Issue(testEmail)
	second, _ := r.Issue(testEmail)

	r.Revoke(testEmail, first)
	assert.Equal(t, 1, r.Len(), "revoking a superseded code must keep the newer one")

	r.Revoke(testEmail, second)
	assert.Equal(t, 0, r.Len())
	assert.ErrorIs(t, r.Redeem(testEmail, second), ErrNotFound)
}

func TestRegistry_GeneratorFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")
	r := NewRegistry(DefaultTTL, WithGenerator(func() (string, error) { return "", boom }))

	_, err := r.Issue(testEmail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_DefaultTTL(t *testing.T) {
	r := NewRegistry(0)
	assert.Equal(t, DefaultTTL, r.ttl)
}

func TestRegistry_ConcurrentRedeemSucceedsOnce(t *testing.T) {
	r := NewRegistry(DefaultTTL)
	code, err := r.Issue(testEmail)
	require.NoError(t, err)

	const workers = 32
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			if r.Redeem(testEmail, code) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestRegistry_ConcurrentIssueAcrossEmails(t *testing.T) {
	r := NewRegistry(DefaultTTL)

	const n = 50
	var wg sync.WaitGroup
	codes := make([]string, n)
	wg.Add(n)
	for i := range n {
		go func(i int) {
			defer wg.Done()
			c, err := r.Issue(fmt.Sprintf("s%d@nsec.ac.in", i))
			assert.NoError(t, err)
			codes[i] = c
		}(i)
	}
	wg.Wait()

	require.Equal(t, n, r.Len())
	for i := range n {
		assert.NoError(t, r.Redeem(fmt.Sprintf("s%d@nsec.ac.in", i), codes[i]))
	}
}
