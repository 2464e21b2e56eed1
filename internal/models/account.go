package models

import "time"

// Subscription is the billing tier of an account.
type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

// Subscriptions lists every valid tier in display order.
var Subscriptions = []Subscription{SubscriptionStarter, SubscriptionPro, SubscriptionBusiness}

// Valid reports whether s is a known tier.
func (s Subscription) Valid() bool {
	for _, v := range Subscriptions {
		if s == v {
			return true
		}
	}
	return false
}

// Account represents a registered user.
type Account struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose this to the client
	AvatarURL    string       `json:"avatarURL"`
	Subscription Subscription `json:"subscription"`
	Verified     bool         `json:"verify"`
	// VerificationCode is set while the account is pending and cleared once verified.
	VerificationCode *string   `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Pending reports whether the account still awaits email verification.
func (a Account) Pending() bool {
	return !a.Verified
}

// Summary is the public projection used in auth responses.
type Summary struct {
	Email        string       `json:"email"`
	Subscription Subscription `json:"subscription"`
}

// Summary returns the public projection of the account.
func (a Account) Summary() Summary {
	return Summary{Email: a.Email, Subscription: a.Subscription}
}

// SessionToken is one entry of an account's revocation ledger.
type SessionToken struct {
	Token     string    `json:"-"`
	AccountID string    `json:"accountId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
