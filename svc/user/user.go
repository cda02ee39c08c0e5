package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an account created on first Twitch login. PremiumFlag is a
// projection of the billing provider's subscription state.
type User struct {
	ID                 uuid.UUID
	TwitchID           string
	Login              string
	DisplayName        string
	Email              string
	ProfileImageURL    string
	PremiumFlag        bool
	CustomerID         string // billing provider customer, empty until first checkout
	AccessTokenSealed  string
	RefreshTokenSealed string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasCustomer reports whether a billing customer was created for the user.
func (u User) HasCustomer() bool {
	return u.CustomerID != ""
}

// Profile is the identity data refreshed on every login.
type Profile struct {
	TwitchID        string
	Login           string
	DisplayName     string
	Email           string
	ProfileImageURL string
}
