package models

// События платёжного провайдера
const (
	PaymentSucceeded = "payment.succeeded"
	PaymentCanceled  = "payment.canceled"
	PaymentRefunded  = "payment.refunded"
)

// Ключи metadata платежа, по которым покупка связывается с пользователем
// и сценой или произведением.
const (
	MetadataUserUID = "user_uid"
	MetadataSceneID = "scene_id"
	MetadataWorkID  = "work_id"
)

// Amount денежная сумма в формате провайдера
type Amount struct {
	Value    string `json:"value"`    // сумма в строке, например "100.00"
	Currency string `json:"currency"` // валюта
}

// PaymentObject платёж внутри уведомления
type PaymentObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   Amount            `json:"amount"`
	Metadata map[string]string `json:"metadata"`
}

// PaymentEvent уведомление платёжного провайдера (вебхук)
type PaymentEvent struct {
	Event  string        `json:"event"`
	Object PaymentObject `json:"object"`
}
