package crypto

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"regexp"
	"runtime"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Pre-compiled regexes for password strength validation
var (
	reUpper = regexp.MustCompile(`[A-Z]`)
	reLower = regexp.MustCompile(`[a-z]`)
	reDigit = regexp.MustCompile(`[0-9]`)
)

var (
	ErrPasswordStrength = errors.New("password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, and one digit")
	ErrMismatch         = errors.New("password does not match hash")
)

const (
	otpMin = 100000
	otpMax = 999999

	// ResetTokenBytes yields a 40 character hex token (160 bits).
	ResetTokenBytes = 20
)

// Hasher wraps bcrypt behind a weighted semaphore so that bursts of sign-ups
// and log-ins queue instead of saturating every core.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher builds a Hasher. concurrency <= 0 means GOMAXPROCS.
func NewHasher(cost, concurrency int) *Hasher {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns the bcrypt hash of password. It blocks while the hasher is
// saturated and gives up when ctx is done.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Check compares password against hash. It returns ErrMismatch when they do
// not match, or the context error if the wait for a slot was cancelled.
func (h *Hasher) Check(ctx context.Context, password, hash string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}

// IsStrong checks if a password meets minimum strength requirements
// Requirements: ≥8 chars, 1 upper, 1 lower, 1 digit
func IsStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return reUpper.MatchString(password) &&
		reLower.MatchString(password) &&
		reDigit.MatchString(password)
}

// GenerateOTP returns a uniformly distributed six digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// GenerateResetToken returns an opaque hex token of ResetTokenBytes random bytes.
func GenerateResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
