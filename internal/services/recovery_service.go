package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/ratelimit"
)

const (
	// No 0/O, 1/l/I or o.
	tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789!@#$%*?"
	tempPasswordLength   = 12
)

// RecoveryService replaces a forgotten password with a temporary one and
// emails it to the account owner.
type RecoveryService struct {
	store   *CredentialStore
	mail    mailer.Gateway
	limiter *ratelimit.KeyedLimiter
	metrics *metrics.Metrics
}

func NewRecoveryService(cfg *config.Config, store *CredentialStore, mail mailer.Gateway, m *metrics.Metrics) *RecoveryService {
	return &RecoveryService{
		store:   store,
		mail:    mail,
		limiter: ratelimit.New(cfg.RecoveryAttemptsPerHour, time.Hour),
		metrics: m,
	}
}

// RequestReset returns ErrAccountNotFound for unknown emails. Whether that
// reaches the client is the handler's decision.
func (s *RecoveryService) RequestReset(ctx context.Context, req dto.RecoverPasswordRequest) error {
	if err := validateRecover(&req); err != nil {
		return err
	}
	email := config.NormalizeEmail(req.Email)
	if !s.limiter.Allow(email) {
		s.metrics.Recovery("rate_limited")
		slog.Warn("password recovery rate limited", "action", "recover", "email", email)
		return ErrRateLimited
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup recovery account: %w", err)
	}
	if user == nil {
		if err := s.store.CompareDummy(ctx, email); err != nil {
			return err
		}
		s.metrics.Recovery("unknown")
		return ErrAccountNotFound
	}

	temp, err := generateTempPassword()
	if err != nil {
		return err
	}
	if err := s.store.SetPassword(ctx, user, temp); err != nil {
		return err
	}
	user.MustChangePassword = true
	if err := s.store.Save(ctx, user); err != nil {
		return fmt.Errorf("store temporary password: %w", err)
	}

	if err := s.mail.Send(ctx, recoveryMessage(user.Email, user.Name, temp)); err != nil {
		s.metrics.Recovery("failed")
		slog.Error("recovery email failed", "action", "recover", "user_id", user.ID.String(), "error", err.Error())
		return ErrDeliveryFailed
	}

	s.metrics.Recovery("sent")
	slog.Info("temporary password issued", "action", "recover", "user_id", user.ID.String())
	return nil
}

func generateTempPassword() (string, error) {
	size := big.NewInt(int64(len(tempPasswordAlphabet)))
	out := make([]byte, tempPasswordLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}

func recoveryMessage(to, name, temp string) mailer.Message {
	greeting := "Hello,"
	if name != "" {
		greeting = "Hello " + name + ","
	}
	return mailer.Message{
		To:      to,
		Subject: "Your temporary password",
		Body: greeting + "\n\n" +
			"A password reset was requested for your account. Your temporary password is:\n\n" +
			"    " + temp + "\n\n" +
			"Sign in with it and choose a new password from your profile.\n" +
			"If you did not request this, contact the store administrator.\n",
	}
}
