package model

import "time"

// User is the canonical profile record. Created on first sign-in, mutated
// by onboarding and by the verification gate, never deleted.
type User struct {
	ID                     int64
	Provider               string
	ProviderSubject        string
	Email                  string
	DisplayName            string
	Age                    int
	Bio                    string
	Interests              []string
	PhotoKey               string
	ProfileCompleted       bool
	Verified               bool
	VerificationConfidence *float64
	CreatedAt              time.Time
	LastLoginAt            time.Time
	VerifiedAt             *time.Time
}
