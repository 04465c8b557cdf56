package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/photomemories/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mock for UserStore. The conditional operations are atomic under
// the mutex, matching the conditional-UPDATE semantics of the real repository,
// so the concurrency property can be tested without a database.
// ---------------------------------------------------------------------------

type mockUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMockUsers(users ...*models.User) *mockUsers {
	m := &mockUsers{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		cp := *u
		m.users[u.ID] = &cp
	}
	return m
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.User, error) {
	return m.GetByID(ctx, id)
}

func (m *mockUsers) UseFreeEnhancement(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, fmt.Errorf("user %s not found", id)
	}
	if u.FreeEnhancementsRemaining <= 0 {
		return false, nil
	}
	u.FreeEnhancementsRemaining--
	return true, nil
}

func (m *mockUsers) DeductCredits(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, fmt.Errorf("user %s not found", id)
	}
	if u.EnhancementCredits < amount {
		return false, nil
	}
	u.EnhancementCredits -= amount
	return true, nil
}

func (m *mockUsers) AddCredits(_ context.Context, id uuid.UUID, amount int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u.EnhancementCredits += amount
	if u.SubscriptionTier == models.TierFree {
		u.SubscriptionTier = models.TierPayAsYouGo
	}
	cp := *u
	return &cp, nil
}

func (m *mockUsers) SetSubscription(_ context.Context, id uuid.UUID, tier models.SubscriptionTier, expiresAt time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u.SubscriptionTier = tier
	exp := expiresAt
	u.SubscriptionExpiresAt = &exp
	cp := *u
	return &cp, nil
}

func (m *mockUsers) snapshot(id uuid.UUID) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func freeUser(id uuid.UUID, free, credits int) *models.User {
	return &models.User{ID: id, SubscriptionTier: models.TierFree, FreeEnhancementsRemaining: free, EnhancementCredits: credits}
}

func timePtr(t time.Time) *time.Time { return &t }

// ---------------------------------------------------------------------------
// CanEnhance
// ---------------------------------------------------------------------------

func TestCanEnhance(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		user models.User
		want bool
	}{
		{
			name: "premium unexpired, counters empty",
			user: models.User{SubscriptionTier: models.TierPremium, SubscriptionExpiresAt: timePtr(now.Add(time.Hour))},
			want: true,
		},
		{
			name: "premium expired, counters empty",
			user: models.User{SubscriptionTier: models.TierPremium, SubscriptionExpiresAt: timePtr(now.Add(-time.Hour))},
			want: false,
		},
		{
			name: "premium without expiry set",
			user: models.User{SubscriptionTier: models.TierPremium},
			want: false,
		},
		{
			name: "free enhancements remaining",
			user: models.User{SubscriptionTier: models.TierFree, FreeEnhancementsRemaining: 1},
			want: true,
		},
		{
			name: "credits remaining",
			user: models.User{SubscriptionTier: models.TierPayAsYouGo, EnhancementCredits: 3},
			want: true,
		},
		{
			name: "nothing left",
			user: models.User{SubscriptionTier: models.TierPayAsYouGo},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanEnhance(&tc.user, now); got != tc.want {
				t.Errorf("CanEnhance: got %v, want %v", got, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ChargeForJob deduction order
// ---------------------------------------------------------------------------

func TestChargeForJob_PremiumChargesNothing(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(&models.User{
		ID:                        id,
		SubscriptionTier:          models.TierPremium,
		SubscriptionExpiresAt:     timePtr(time.Now().Add(24 * time.Hour)),
		FreeEnhancementsRemaining: 1,
		EnhancementCredits:        5,
	})
	svc := NewService(store)

	used, err := svc.ChargeForJob(context.Background(), nil, id, models.JobMultiPhotoMontage)
	if err != nil {
		t.Fatalf("ChargeForJob: %v", err)
	}
	if used != 2 {
		t.Errorf("credits used: got %d, want 2", used)
	}
	after := store.snapshot(id)
	if after.FreeEnhancementsRemaining != 1 || after.EnhancementCredits != 5 {
		t.Errorf("premium charge mutated counters: free=%d credits=%d", after.FreeEnhancementsRemaining, after.EnhancementCredits)
	}
}

func TestChargeForJob_FreeCounterIsFlatRate(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(freeUser(id, 2, 10))
	svc := NewService(store)

	// A 2-credit job must still consume exactly one free enhancement
	// and leave the credit balance alone.
	used, err := svc.ChargeForJob(context.Background(), nil, id, models.JobExtendVideo)
	if err != nil {
		t.Fatalf("ChargeForJob: %v", err)
	}
	if used != 2 {
		t.Errorf("credits used: got %d, want 2", used)
	}
	after := store.snapshot(id)
	if after.FreeEnhancementsRemaining != 1 {
		t.Errorf("free counter: got %d, want 1", after.FreeEnhancementsRemaining)
	}
	if after.EnhancementCredits != 10 {
		t.Errorf("credit balance should be untouched: got %d, want 10", after.EnhancementCredits)
	}
}

func TestChargeForJob_CreditsDebitedByJobCost(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(freeUser(id, 0, 10))
	svc := NewService(store)

	used, err := svc.ChargeForJob(context.Background(), nil, id, models.JobMultiPhotoMontage)
	if err != nil {
		t.Fatalf("ChargeForJob: %v", err)
	}
	if used != 2 {
		t.Errorf("credits used: got %d, want 2", used)
	}
	after := store.snapshot(id)
	if after.EnhancementCredits != 8 {
		t.Errorf("credit balance: got %d, want 8", after.EnhancementCredits)
	}
	if after.FreeEnhancementsRemaining != 0 {
		t.Errorf("free counter should stay 0, got %d", after.FreeEnhancementsRemaining)
	}
}

func TestChargeForJob_InsufficientMutatesNothing(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(freeUser(id, 0, 1))
	svc := NewService(store)

	// 1 credit available, montage costs 2.
	if _, err := svc.ChargeForJob(context.Background(), nil, id, models.JobMultiPhotoMontage); err != ErrInsufficientCredits {
		t.Fatalf("expected ErrInsufficientCredits, got: %v", err)
	}
	after := store.snapshot(id)
	if after.EnhancementCredits != 1 || after.FreeEnhancementsRemaining != 0 {
		t.Errorf("failed charge mutated account: free=%d credits=%d", after.FreeEnhancementsRemaining, after.EnhancementCredits)
	}
}

func TestChargeForJob_UnknownUser(t *testing.T) {
	svc := NewService(newMockUsers())
	if _, err := svc.ChargeForJob(context.Background(), nil, uuid.New(), models.JobColorize); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
}

// Two simultaneous charges against an account with exactly one free
// enhancement and no credits: exactly one succeeds.
func TestChargeForJob_ConcurrentLastCredit(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(freeUser(id, 1, 0))
	svc := NewService(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ChargeForJob(context.Background(), nil, id, models.JobColorize)
		}(i)
	}
	wg.Wait()

	var success, insufficient int
	for _, err := range errs {
		switch err {
		case nil:
			success++
		case ErrInsufficientCredits:
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 || insufficient != 1 {
		t.Errorf("got %d successes and %d insufficient-credit failures, want 1 and 1", success, insufficient)
	}
	if after := store.snapshot(id); after.FreeEnhancementsRemaining != 0 {
		t.Errorf("free counter: got %d, want 0", after.FreeEnhancementsRemaining)
	}
}

// ---------------------------------------------------------------------------
// PurchaseCredits / Subscribe
// ---------------------------------------------------------------------------

func TestPurchaseCredits(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(freeUser(id, 0, 0))
	svc := NewService(store)

	user, err := svc.PurchaseCredits(context.Background(), id, 25)
	if err != nil {
		t.Fatalf("PurchaseCredits: %v", err)
	}
	if user.EnhancementCredits != 25 {
		t.Errorf("credits: got %d, want 25", user.EnhancementCredits)
	}
	if user.SubscriptionTier != models.TierPayAsYouGo {
		t.Errorf("tier: got %s, want %s", user.SubscriptionTier, models.TierPayAsYouGo)
	}

	// Premium accounts keep their tier when topping up.
	premID := uuid.New()
	store2 := newMockUsers(&models.User{ID: premID, SubscriptionTier: models.TierPremium})
	svc2 := NewService(store2)
	user, err = svc2.PurchaseCredits(context.Background(), premID, 10)
	if err != nil {
		t.Fatalf("PurchaseCredits: %v", err)
	}
	if user.SubscriptionTier != models.TierPremium {
		t.Errorf("tier: got %s, want %s", user.SubscriptionTier, models.TierPremium)
	}
}

func TestPurchaseCredits_InvalidPackage(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(freeUser(id, 0, 0))
	svc := NewService(store)

	for _, size := range []int{0, 7, -10, 1000} {
		if _, err := svc.PurchaseCredits(context.Background(), id, size); err != ErrInvalidPackage {
			t.Errorf("package %d: expected ErrInvalidPackage, got %v", size, err)
		}
	}
	if after := store.snapshot(id); after.EnhancementCredits != 0 || after.SubscriptionTier != models.TierFree {
		t.Errorf("failed purchase mutated account: %+v", after)
	}
}

func TestSubscribe(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(freeUser(id, 0, 0))
	svc := NewService(store)
	base := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	user, err := svc.Subscribe(context.Background(), id, models.TierPremium)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if user.SubscriptionTier != models.TierPremium {
		t.Errorf("tier: got %s, want premium", user.SubscriptionTier)
	}
	want := base.AddDate(0, 1, 0)
	if user.SubscriptionExpiresAt == nil || !user.SubscriptionExpiresAt.Equal(want) {
		t.Errorf("expiry: got %v, want %v", user.SubscriptionExpiresAt, want)
	}

	// Subscribing again resets the expiry rather than extending it.
	svc.now = func() time.Time { return base.Add(48 * time.Hour) }
	user, err = svc.Subscribe(context.Background(), id, models.TierPremium)
	if err != nil {
		t.Fatalf("Subscribe again: %v", err)
	}
	want = base.Add(48 * time.Hour).AddDate(0, 1, 0)
	if user.SubscriptionExpiresAt == nil || !user.SubscriptionExpiresAt.Equal(want) {
		t.Errorf("expiry after resubscribe: got %v, want %v", user.SubscriptionExpiresAt, want)
	}

	if _, err := svc.Subscribe(context.Background(), id, models.TierPayAsYouGo); err != ErrInvalidTier {
		t.Errorf("expected ErrInvalidTier, got %v", err)
	}
}

func TestSubscriptionStatus(t *testing.T) {
	id := uuid.New()
	store := newMockUsers(freeUser(id, 2, 0))
	svc := NewService(store)

	status, err := svc.SubscriptionStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("SubscriptionStatus: %v", err)
	}
	if status.Tier != models.TierFree || status.FreeEnhancementsRemaining != 2 || status.EnhancementCredits != 0 {
		t.Errorf("unexpected status: %+v", status)
	}
	if !status.CanEnhance {
		t.Error("fresh account with free enhancements should be able to enhance")
	}

	if _, err := svc.SubscriptionStatus(context.Background(), uuid.New()); err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
