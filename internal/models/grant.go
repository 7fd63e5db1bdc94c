package models

import "time"

// GrantType тип выдачи доступа
type GrantType string

const (
	// GrantPurchase доступ, купленный поштучно. Не истекает.
	GrantPurchase GrantType = "purchase"
	// GrantFreeSlot единственный бесплатный доступ к одной сцене.
	GrantFreeSlot GrantType = "free_slot"
)

// Grant запись о выдаче доступа пользователю к сцене или ко всему произведению.
// Создаётся один раз и больше не меняется.
type Grant struct {
	ID        string
	UserUID   string
	SceneID   string // пусто, если доступ выдан на произведение целиком
	WorkID    string // пусто, если доступ выдан на отдельную сцену
	Type      GrantType
	CreatedAt time.Time
}

// FreeSlotResult результат атомарной попытки занять бесплатный слот.
type FreeSlotResult struct {
	AlreadyConsumed bool   // слот был занят ранее, новая запись не создана
	SceneID         string // сцена, к которой привязан слот
}

// FreeSlotGranted событие для внешнего сервиса уведомлений.
type FreeSlotGranted struct {
	EventID   string    `json:"event_id"`
	UserUID   string    `json:"user_uid"`
	SceneID   string    `json:"scene_id"`
	GrantedAt time.Time `json:"granted_at"`
}
