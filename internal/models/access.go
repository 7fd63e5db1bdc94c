package models

// AccessType источник, по которому пользователь получил доступ
type AccessType string

const (
	AccessNone         AccessType = "none"
	AccessAdmin        AccessType = "admin"
	AccessSubscription AccessType = "subscription"
	AccessPurchase     AccessType = "purchase"
	AccessFreeSlot     AccessType = "free_slot"
)

// AccessDecision итог проверки доступа пользователя к сцене.
type AccessDecision struct {
	HasAccess      bool       `json:"has_access"`
	AccessType     AccessType `json:"access_type"`
	CanUseFreeSlot bool       `json:"can_use_free_slot"`
}

// AccessRequest тело запроса на проверку доступа.
type AccessRequest struct {
	SceneID string `json:"scene_id" validate:"required,max=128"`
	WorkID  string `json:"work_id,omitempty" validate:"omitempty,max=128"`
}

// FreeSlotRequest тело запроса на использование бесплатного слота.
type FreeSlotRequest struct {
	SceneID string `json:"scene_id" validate:"required,max=128"`
}
