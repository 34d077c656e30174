package services

import (
	"context"
	"log"
	"time"

	"knowhub-backend/internal/adapters/persistence/models"
	"knowhub-backend/internal/adapters/persistence/repositories"
)

// MaxFailedAttempts is the failed-login budget before an account locks
const MaxFailedAttempts = 5

// AccessDecision is the outcome of gating one identity before authentication
type AccessDecision int

const (
	// AccessAllowed lets the login attempt proceed to password verification
	AccessAllowed AccessDecision = iota
	// AccessDeactivated means is_active is false; checked before the lock state
	AccessDeactivated
	// AccessLocked means the account is locked (administrative unlock required)
	AccessLocked
	// AccessAttemptsExceeded is the messaging sub-case of AccessLocked for
	// accounts locked by exhausting the failed-attempt budget
	AccessAttemptsExceeded
)

// LockoutService tracks failed-authentication counters and the
// active/locked state machine for identities
type LockoutService struct {
	userRepo repositories.UserRepository
	now      func() time.Time
}

// NewLockoutService creates a new lockout service
func NewLockoutService(userRepo repositories.UserRepository) *LockoutService {
	return &LockoutService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// CheckAccess gates one identity. The active flag and the lock flag are
// independent; the active flag is checked first.
func (s *LockoutService) CheckAccess(user *models.User) AccessDecision {
	if !user.IsActive {
		return AccessDeactivated
	}
	if user.IsLocked {
		if user.FailedLoginAttempts >= MaxFailedAttempts {
			return AccessAttemptsExceeded
		}
		return AccessLocked
	}
	return AccessAllowed
}

// RecordFailure bumps the failed-attempt counter through a single atomic
// read-modify-write; crossing MaxFailedAttempts locks the account in the
// same statement. Returns the refreshed identity and whether this failure
// caused the lock.
func (s *LockoutService) RecordFailure(ctx context.Context, user *models.User) (*models.User, bool, error) {
	updated, err := s.userRepo.IncrementFailedAttempts(ctx, user.ID, MaxFailedAttempts, s.now())
	if err != nil {
		return nil, false, err
	}

	lockedNow := updated.IsLocked && !user.IsLocked
	if lockedNow {
		log.Printf("🔒 Account locked after %d failed attempts: %s", updated.FailedLoginAttempts, updated.Username)
	}

	return updated, lockedNow, nil
}

// RecordSuccess resets the failed-attempt counter. It never clears the lock:
// a locked account stays locked even after a correct password, until an
// administrative unlock.
func (s *LockoutService) RecordSuccess(ctx context.Context, user *models.User) error {
	if user.FailedLoginAttempts == 0 {
		return nil
	}
	return s.userRepo.ResetFailedAttempts(ctx, user.ID)
}

// AdminUnlock clears the lock state and the counter. This is the only path
// out of the locked state.
func (s *LockoutService) AdminUnlock(ctx context.Context, userID uint) error {
	if err := s.userRepo.Unlock(ctx, userID); err != nil {
		return err
	}
	log.Printf("🔓 Account unlocked by administrator: user ID %d", userID)
	return nil
}
