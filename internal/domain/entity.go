// Package domain contains core domain types for the collabmatch application.
package domain

import "time"

// Influencer is a content creator that brands can sponsor.
type Influencer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Niche     string    `json:"niche"`
	Followers int64     `json:"followers"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// Brand is a sponsor looking for influencers in its niche.
type Brand struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Niche     string    `json:"niche"`
	Budget    int64     `json:"budget"`
	CreatedAt time.Time `json:"created_at"`
}

// UserType identifies which population the person in a conversation belongs to.
type UserType string

const (
	UserTypeUnset      UserType = ""
	UserTypeBrand      UserType = "brand"
	UserTypeInfluencer UserType = "influencer"
)

// ParseUserType maps a normalized answer to a UserType.
func ParseUserType(s string) (UserType, bool) {
	switch UserType(s) {
	case UserTypeBrand:
		return UserTypeBrand, true
	case UserTypeInfluencer:
		return UserTypeInfluencer, true
	default:
		return UserTypeUnset, false
	}
}
