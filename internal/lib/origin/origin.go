// Package origin проверяет, что изменяющий запрос пришёл с собственного
// origin сервиса. Это дополнительная защита от CSRF для браузерных клиентов,
// а не замена CSRF-токена.
package origin

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Причины отказа
const (
	ReasonOriginMismatch   = "origin_mismatch"
	ReasonRefererMismatch  = "referer_mismatch"
	ReasonRefererMalformed = "referer_malformed"
	ReasonMissing          = "missing_origin"
)

// ErrInvalidCanonical возвращается, если собственный origin сервиса задан неверно.
var ErrInvalidCanonical = errors.New("invalid canonical origin")

// Verdict результат проверки. Reason заполнен только при отказе.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Guard хранит нормализованный origin сервиса.
type Guard struct {
	canonical string
}

// New создаёт Guard. canonical должен быть вида scheme://host[:port].
func New(canonical string) (*Guard, error) {
	const op = "origin.New"
	norm, ok := normalize(canonical)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrInvalidCanonical, canonical)
	}
	return &Guard{canonical: norm}, nil
}

// Canonical возвращает нормализованный origin сервиса.
func (g *Guard) Canonical() string {
	return g.canonical
}

// Check сравнивает заголовки Origin и Referer с origin сервиса.
// Origin, если есть, должен совпасть точно. Иначе используется origin из Referer.
// Без обоих заголовков запрос отклоняется.
func (g *Guard) Check(originHeader, refererHeader string) Verdict {
	originHeader = strings.TrimSpace(originHeader)
	refererHeader = strings.TrimSpace(refererHeader)

	if originHeader != "" {
		norm, ok := normalize(originHeader)
		if !ok || norm != g.canonical {
			return Verdict{Reason: ReasonOriginMismatch}
		}
		return Verdict{Allowed: true}
	}

	if refererHeader == "" {
		return Verdict{Reason: ReasonMissing}
	}
	norm, ok := normalize(refererHeader)
	if !ok {
		return Verdict{Reason: ReasonRefererMalformed}
	}
	if norm != g.canonical {
		return Verdict{Reason: ReasonRefererMismatch}
	}
	return Verdict{Allowed: true}
}

// normalize выделяет scheme://host[:port] в нижнем регистре,
// порт по умолчанию для схемы отбрасывается.
func normalize(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	if u.Host == "" || u.User != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return scheme + "://" + host + ":" + port, true
	}
	return scheme + "://" + host, true
}
