package service

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/campusbus/internal/domain"
)

const otpMaxAttempts = 3

// OTPStore holds live password-reset codes in process memory. Codes are keyed
// by the code string itself, expire via per-record timers, and never touch
// either persistence layer: a process restart invalidates all outstanding
// codes, which is the intended behavior for short-lived reset credentials.
type OTPStore struct {
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	codes  map[string]*domain.OTPRecord
	timers map[string]*time.Timer
}

// NewOTPStore creates the store. ttl bounds how long a code stays valid.
func NewOTPStore(ttl time.Duration, logger *slog.Logger) *OTPStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &OTPStore{
		ttl:    ttl,
		logger: logger,
		codes:  make(map[string]*domain.OTPRecord),
		timers: make(map[string]*time.Timer),
	}
}

// Generate produces a 6-digit numeric code from crypto/rand.
func (s *OTPStore) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Store registers a fresh code for the given email, purging any prior live
// code for the same address so only the newest one is redeemable. The record
// self-deletes when its expiry timer fires.
func (s *OTPStore) Store(code, email string) domain.OTPRecord {
	now := time.Now()
	record := domain.OTPRecord{
		Code:      code,
		Email:     email,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for existing, rec := range s.codes {
		if strings.EqualFold(rec.Email, email) {
			s.removeLocked(existing)
		}
	}

	s.codes[code] = &record
	s.timers[code] = time.AfterFunc(s.ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.removeLocked(code)
	})
	return record
}

// CanRequest reports whether a new code may be issued for the email. A live
// unredeemed code blocks re-issue until it expires or is consumed.
func (s *OTPStore) CanRequest(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, rec := range s.codes {
		if strings.EqualFold(rec.Email, email) && rec.Live(now) {
			return false
		}
	}
	return true
}

// Validate checks a code/email pair without consuming the code. Each failed
// check counts as an attempt; a code past the attempt limit or its expiry is
// deleted on the spot.
func (s *OTPStore) Validate(code, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.codes[code]
	if !ok || !strings.EqualFold(record.Email, email) {
		return domain.OTPError{Reason: domain.OTPInvalidOrExpired}
	}
	if record.Used {
		return domain.OTPError{Reason: domain.OTPAlreadyUsed}
	}
	if time.Now().After(record.ExpiresAt) {
		s.removeLocked(code)
		return domain.OTPError{Reason: domain.OTPExpired}
	}

	record.Attempts++
	if record.Attempts > otpMaxAttempts {
		s.removeLocked(code)
		return domain.OTPError{Reason: domain.OTPTooManyAttempts}
	}
	return nil
}

// MarkUsed consumes a code after a successful reset so it cannot be redeemed
// twice.
func (s *OTPStore) MarkUsed(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.codes[code]; ok {
		record.Used = true
	}
}

// Stop cancels every outstanding expiry timer. Used at shutdown.
func (s *OTPStore) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code := range s.codes {
		s.removeLocked(code)
	}
}

func (s *OTPStore) removeLocked(code string) {
	if timer, ok := s.timers[code]; ok {
		timer.Stop()
		delete(s.timers, code)
	}
	delete(s.codes, code)
}
