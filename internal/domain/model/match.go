package model

import "time"

const MatchStatusActive = "active"

// Match is an owner-scoped pairing record with denormalized counterpart
// display fields. ExpiresAt is fixed at creation and never extended.
type Match struct {
	ID              int64
	OwnerUserID     int64
	TargetUserID    int64
	TargetName      string
	TargetAge       int
	TargetBio       string
	TargetPhotoKey  string
	TargetInterests []string
	IceBreaker      string
	MatchedAt       time.Time
	ExpiresAt       time.Time
	MessageCount    int
	Status          string
}
