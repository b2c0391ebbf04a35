package dto

import "time"

type UserResponse struct {
	ID               int64      `json:"id"`
	DisplayName      string     `json:"display_name"`
	Age              int        `json:"age"`
	Bio              string     `json:"bio"`
	Interests        []string   `json:"interests"`
	PhotoURL         string     `json:"photo_url,omitempty"`
	ProfileCompleted bool       `json:"profile_completed"`
	Verified         bool       `json:"verified"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
}

type OnboardingRequest struct {
	DisplayName string   `json:"display_name"`
	Age         int      `json:"age"`
	Bio         string   `json:"bio"`
	Interests   []string `json:"interests"`
}
