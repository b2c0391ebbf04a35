package model

import "time"

type Message struct {
	ID         int64
	MatchID    int64
	SenderID   int64
	ReceiverID int64
	Text       string
	SentAt     time.Time
	Read       bool
}
