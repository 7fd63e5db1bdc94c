package entitlement

import "errors"

var (
	// ErrResolutionFailed доступ не удалось определить из-за ошибки хранилища.
	// Такой результат нельзя трактовать ни как наличие доступа, ни как его отсутствие.
	ErrResolutionFailed = errors.New("access resolution failed")
	// ErrGrantFailed бесплатный слот не удалось выдать из-за ошибки хранилища.
	ErrGrantFailed = errors.New("free slot grant failed")
	// ErrUnauthenticated операция требует пользователя.
	ErrUnauthenticated = errors.New("user is not authenticated")
	// ErrInvalidInput не передан обязательный идентификатор.
	ErrInvalidInput = errors.New("invalid input")
)
