package dto

import "time"

type VerificationResponse struct {
	Verified   bool      `json:"verified"`
	Confidence float64   `json:"confidence"`
	Threshold  float64   `json:"threshold"`
	Reason     string    `json:"reason,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
