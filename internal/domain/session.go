package domain

import "time"

// Session is the signed-in state of one storefront user. Tokens are opaque
// to the client; the remote API stays the authority on their validity.
type Session struct {
	AccessToken   string       `json:"access_token,omitempty"`
	RefreshToken  string       `json:"refresh_token,omitempty"`
	User          *UserSummary `json:"user,omitempty"`
	AccessExpiry  time.Time    `json:"access_expiry"`
	RefreshExpiry time.Time    `json:"refresh_expiry"`
}

// AccessValid reports whether the access token may still be presented at now.
// The server may reject it earlier.
func (s *Session) AccessValid(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return now.Before(s.AccessExpiry)
}

// UserSummary is synthesized locally on sign-in; the API returns no profile.
type UserSummary struct {
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"first_name" yaml:"first_name"`
}
