package dto

import "time"

type MatchResponse struct {
	ID              int64     `json:"id"`
	TargetUserID    int64     `json:"target_user_id"`
	TargetName      string    `json:"target_name"`
	TargetAge       int       `json:"target_age"`
	TargetBio       string    `json:"target_bio"`
	TargetPhotoURL  string    `json:"target_photo_url,omitempty"`
	TargetInterests []string  `json:"target_interests"`
	IceBreaker      string    `json:"ice_breaker"`
	MatchedAt       time.Time `json:"matched_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	MessageCount    int       `json:"message_count"`
	Status          string    `json:"status"`
}

type MatchesResponse struct {
	Items []MatchResponse `json:"items"`
}

type UnmatchRequest struct {
	MatchID int64 `json:"match_id"`
}

type UnmatchResponse struct {
	OK      bool `json:"ok"`
	Deleted bool `json:"deleted"`
}

type SweepResponse struct {
	Removed int64 `json:"removed"`
}
