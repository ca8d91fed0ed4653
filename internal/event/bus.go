package event

import (
	"time"
)

type (
	Queueable interface {
		Expired() bool
		Type() string
	}

	Base struct {
		expireAt  time.Time
		eventType string
	}
)

// CreateBase returns the common event part. A zero expiresAt never expires.
func CreateBase(eventType string, expiresAt time.Time) *Base {
	return &Base{
		expireAt:  expiresAt,
		eventType: eventType,
	}
}

func (b *Base) Expired() bool {
	if b.expireAt.IsZero() {
		return false
	}
	return time.Now().After(b.expireAt)
}

func (b *Base) Type() string {
	return b.eventType
}
