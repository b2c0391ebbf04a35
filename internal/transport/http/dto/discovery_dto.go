package dto

type CandidatesResponse struct {
	Items []UserResponse `json:"items"`
}

type SwipeRequest struct {
	TargetID int64  `json:"target_id"`
	Action   string `json:"action"`
}

type SwipeResponse struct {
	Matched bool           `json:"matched"`
	Match   *MatchResponse `json:"match,omitempty"`
}
