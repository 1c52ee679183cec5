package domain

import "time"

// Tier is the subscription tier of an account.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Theme is the UI theme preference stored with the profile.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// EmailIntegration holds the OAuth tokens of a connected mailbox.
type EmailIntegration struct {
	Provider     string     `json:"provider" bson:"provider"`
	AccessToken  string     `json:"access_token,omitempty" bson:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty" bson:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// Usage counts metered actions for the account.
type Usage struct {
	DocumentsGenerated int `json:"documents_generated" bson:"documents_generated"`
	EmailsSent         int `json:"emails_sent" bson:"emails_sent"`
}

// Profile is the one-per-account company and contact record.
type Profile struct {
	ID               string            `json:"id" bson:"_id" validate:"required"`
	CompanyName      string            `json:"company_name" bson:"company_name"`
	ContactName      string            `json:"contact_name" bson:"contact_name"`
	Email            string            `json:"email" bson:"email" validate:"omitempty,email"`
	Phone            string            `json:"phone" bson:"phone"`
	Address          string            `json:"address" bson:"address"`
	LogoURL          string            `json:"logo_url,omitempty" bson:"logo_url,omitempty" validate:"omitempty,url"`
	SubscriptionTier Tier              `json:"subscription_tier" bson:"subscription_tier" validate:"omitempty,oneof=free premium"`
	Theme            Theme             `json:"theme" bson:"theme" validate:"omitempty,oneof=light dark system"`
	EmailIntegration *EmailIntegration `json:"email_integration,omitempty" bson:"email_integration,omitempty"`
	Usage            Usage             `json:"usage" bson:"usage"`
	UpdatedAt        time.Time         `json:"updated_at" bson:"updated_at"`
}

// EffectiveTier treats an unset tier as free.
func (p *Profile) EffectiveTier() Tier {
	if p == nil || p.SubscriptionTier == "" {
		return TierFree
	}
	return p.SubscriptionTier
}
