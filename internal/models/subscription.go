package models

import "time"

// Статусы подписки
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionExpired  = "expired"
)

// Subscription представляет оплаченную подписку пользователя.
// ExpiresAt == nil означает бессрочную подписку.
type Subscription struct {
	UserUID   string
	Status    string
	StartsAt  time.Time
	ExpiresAt *time.Time
}

// ActiveAt сообщает, даёт ли подписка доступ в момент now.
func (s Subscription) ActiveAt(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	if now.Before(s.StartsAt) {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}
