package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/metrics"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// PasswordHasher runs bcrypt through a bounded pool so that a burst of
// logins cannot occupy every CPU.
type PasswordHasher struct {
	cost      int
	sem       *semaphore.Weighted
	dummyHash []byte
	metrics   *metrics.Metrics
}

func NewPasswordHasher(cost, concurrency int, m *metrics.Metrics) (*PasswordHasher, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	h := &PasswordHasher{
		cost:    cost,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		metrics: m,
	}

	// Unknown emails are compared against this hash so they cost the same
	// as a real mismatch.
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate dummy password: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(base64.RawStdEncoding.EncodeToString(raw)), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	h.dummyHash = dummy
	return h, nil
}

func (h *PasswordHasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	h.metrics.ObserveHash("hash", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether plain matches hash. The error is non-nil only when
// the comparison could not run at all.
func (h *PasswordHasher) Compare(ctx context.Context, hash, plain string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	h.metrics.ObserveHash("compare", time.Since(start))
	// A malformed stored hash counts as a mismatch.
	return err == nil, nil
}

// CompareDummy burns one comparison against the dummy hash.
func (h *PasswordHasher) CompareDummy(ctx context.Context, plain string) error {
	_, err := h.Compare(ctx, string(h.dummyHash), plain)
	return err
}
