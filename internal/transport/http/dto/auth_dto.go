package dto

type LoginRequest struct {
	Provider    string `json:"provider"`
	Subject     string `json:"subject"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthTokensResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresInSec int64        `json:"expires_in_sec"`
	Me           UserResponse `json:"me"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
