package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier is a closed enum, validated at the API boundary.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPayAsYouGo SubscriptionTier = "pay_as_you_go"
	TierPremium    SubscriptionTier = "premium"
)

func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierFree, TierPayAsYouGo, TierPremium:
		return true
	}
	return false
}

// AuthProvider identifies where a user's identity comes from.
type AuthProvider string

const (
	ProviderGoogle    AuthProvider = "google"
	ProviderMicrosoft AuthProvider = "microsoft"
	ProviderFacebook  AuthProvider = "facebook"
	ProviderLocal     AuthProvider = "local"
)

func (p AuthProvider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderMicrosoft, ProviderFacebook, ProviderLocal:
		return true
	}
	return false
}

// InitialFreeEnhancements is granted to every user at first login.
const InitialFreeEnhancements = 2

// CreditPackages are the published purchase denominations.
var CreditPackages = []int{10, 25, 50, 100}

// ValidCreditPackage reports whether size is a published denomination.
func ValidCreditPackage(size int) bool {
	for _, p := range CreditPackages {
		if size == p {
			return true
		}
	}
	return false
}

type User struct {
	ID                        uuid.UUID        `json:"id"`
	Email                     string           `json:"email"`
	DisplayName               string           `json:"displayName"`
	ProfilePictureURL         *string          `json:"profilePictureUrl,omitempty"`
	AuthProvider              AuthProvider     `json:"authProvider"`
	ExternalID                *string          `json:"-"`
	PasswordHash              *string          `json:"-"`
	SubscriptionTier          SubscriptionTier `json:"subscriptionTier"`
	FreeEnhancementsRemaining int              `json:"freeEnhancementsRemaining"`
	EnhancementCredits        int              `json:"enhancementCredits"`
	SubscriptionExpiresAt     *time.Time       `json:"subscriptionExpiresAt,omitempty"`
	GooglePhotosConnected     bool             `json:"googlePhotosConnected"`
	OneDriveConnected         bool             `json:"oneDriveConnected"`
	AutoSyncEnabled           bool             `json:"autoSyncEnabled"`
	CreatedAt                 time.Time        `json:"createdAt"`
	UpdatedAt                 time.Time        `json:"updatedAt"`
}
