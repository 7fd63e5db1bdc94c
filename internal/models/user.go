// Package models содержит доменные структуры сервиса доступа к сценам:
// пользователя, подписку, выдачи доступа и результат проверки доступа.
package models

// User описывает вызывающего пользователя. Учётными записями владеет
// внешний провайдер идентификации, сервис их только читает.
type User struct {
	UUID  string // Уникальный идентификатор пользователя
	Email string // Электронная почта
}
