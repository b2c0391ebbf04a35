package dto

import "time"

type SendMessageRequest struct {
	Text string `json:"text"`
}

type MessageResponse struct {
	ID         int64     `json:"id"`
	MatchID    int64     `json:"match_id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sent_at"`
	Read       bool      `json:"read"`
}

type MessagesResponse struct {
	Items []MessageResponse `json:"items"`
}

type MarkReadResponse struct {
	OK       bool  `json:"ok"`
	Affected int64 `json:"affected"`
}
