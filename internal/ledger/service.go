package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/photomemories/backend/internal/models"
)

var (
	// ErrInsufficientCredits is returned when neither the subscription, the free
	// counter, nor the credit balance can cover a job.
	ErrInsufficientCredits = errors.New("insufficient enhancement credits")
	// ErrInvalidPackage is returned for a purchase outside the published denominations.
	ErrInvalidPackage = errors.New("invalid credit package")
	// ErrInvalidTier is returned when subscribing to anything but premium.
	ErrInvalidTier = errors.New("invalid subscription tier")
	// ErrUserNotFound is returned when the account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// SubscriptionStatus is the account's enhancement entitlement snapshot.
type SubscriptionStatus struct {
	Tier                      models.SubscriptionTier `json:"tier"`
	FreeEnhancementsRemaining int                     `json:"freeEnhancementsRemaining"`
	EnhancementCredits        int                     `json:"enhancementCredits"`
	ExpiresAt                 *time.Time              `json:"expiresAt,omitempty"`
	CanEnhance                bool                    `json:"canEnhance"`
}

// UserStore is the minimal account storage interface the ledger needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error)
	UseFreeEnhancement(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (bool, error)
	AddCredits(ctx context.Context, id uuid.UUID, amount int) (*models.User, error)
	SetSubscription(ctx context.Context, id uuid.UUID, tier models.SubscriptionTier, expiresAt time.Time) (*models.User, error)
}

type Service interface {
	ChargeForJob(ctx context.Context, tx pgx.Tx, userID uuid.UUID, jobType models.JobType) (int, error)
	PurchaseCredits(ctx context.Context, userID uuid.UUID, packageSize int) (*models.User, error)
	Subscribe(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier) (*models.User, error)
	SubscriptionStatus(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error)
}

type service struct {
	store UserStore
	now   func() time.Time
}

func NewService(store UserStore) *service {
	return &service{store: store, now: time.Now}
}

var _ Service = (*service)(nil)

// CanEnhance reports whether the account may consume an enhancement:
// an unexpired premium subscription, a free enhancement, or any credit balance.
func CanEnhance(u *models.User, now time.Time) bool {
	if u.SubscriptionTier == models.TierPremium && u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.After(now) {
		return true
	}
	if u.FreeEnhancementsRemaining > 0 {
		return true
	}
	return u.EnhancementCredits > 0
}

// ChargeForJob locks the user row and applies the deduction order:
// unexpired premium charges nothing; otherwise one free enhancement is
// consumed flat-rate regardless of the job's cost; otherwise the credit
// balance is debited by the job's cost. Runs inside the caller's transaction
// so the charge commits or rolls back together with the job insert.
// Returns the job's credit cost.
func (s *service) ChargeForJob(ctx context.Context, tx pgx.Tx, userID uuid.UUID, jobType models.JobType) (int, error) {
	user, err := s.store.GetByIDForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	creditsNeeded := models.CreditCost(jobType)

	now := s.now()
	if user.SubscriptionTier == models.TierPremium && user.SubscriptionExpiresAt != nil && user.SubscriptionExpiresAt.After(now) {
		return creditsNeeded, nil
	}
	if user.FreeEnhancementsRemaining > 0 {
		ok, err := s.store.UseFreeEnhancement(ctx, tx, userID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrInsufficientCredits
		}
		return creditsNeeded, nil
	}
	if user.EnhancementCredits >= creditsNeeded {
		ok, err := s.store.DeductCredits(ctx, tx, userID, creditsNeeded)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrInsufficientCredits
		}
		return creditsNeeded, nil
	}
	return 0, ErrInsufficientCredits
}

func (s *service) PurchaseCredits(ctx context.Context, userID uuid.UUID, packageSize int) (*models.User, error) {
	if !models.ValidCreditPackage(packageSize) {
		return nil, ErrInvalidPackage
	}
	user, err := s.store.AddCredits(ctx, userID, packageSize)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Subscribe sets the premium tier with an expiry of one month from now.
// An existing unexpired subscription is reset to that date, not extended.
func (s *service) Subscribe(ctx context.Context, userID uuid.UUID, tier models.SubscriptionTier) (*models.User, error) {
	if tier != models.TierPremium {
		return nil, ErrInvalidTier
	}
	user, err := s.store.SetSubscription(ctx, userID, tier, s.now().AddDate(0, 1, 0))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *service) SubscriptionStatus(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &SubscriptionStatus{
		Tier:                      user.SubscriptionTier,
		FreeEnhancementsRemaining: user.FreeEnhancementsRemaining,
		EnhancementCredits:        user.EnhancementCredits,
		ExpiresAt:                 user.SubscriptionExpiresAt,
		CanEnhance:                CanEnhance(user, s.now()),
	}, nil
}
