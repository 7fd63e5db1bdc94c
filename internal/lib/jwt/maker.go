// Package jwt проверяет сессионные JWT-токены, выпущенные провайдером идентификации.
//
// Maker определяет интерфейс для создания и проверки токенов с user_uid и email.
// MakerImpl: реализация на HS256 с общим секретом и сроком жизни токена.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и разбора сессионных токенов.
type Maker interface {
	// GenerateToken выпускает токен для пользователя. Используется в тестах и утилитах.
	GenerateToken(userUID, email string) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
