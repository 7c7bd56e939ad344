package model

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	Read      bool   `json:"read"`
}

func NewNotification(title, body string, at time.Time) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Timestamp: at.UnixMilli(),
	}
}

func (n Notification) Time() time.Time {
	return time.UnixMilli(n.Timestamp)
}
