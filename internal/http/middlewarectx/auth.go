// Package middlewarectx содержит HTTP middleware периметра: проверку
// сессионного токена, Origin/Referer и ограничение частоты запросов.
//
// Найденный пользователь кладётся в контекст запроса, обработчики читают его
// через UserFromContext.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/script-access/internal/http/response"
	"github.com/magabrotheeeer/script-access/internal/lib/jwt"
	"github.com/magabrotheeeer/script-access/internal/lib/sl"
	"github.com/magabrotheeeer/script-access/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserKey ключ *models.User в контексте
const UserKey Key = "user"

// TokenParser проверяет сессионный токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// Authenticator достаёт пользователя из заголовка Authorization
// или из сессионной cookie.
type Authenticator struct {
	parser     TokenParser
	cookieName string
	log        *slog.Logger
}

// NewAuthenticator создаёт Authenticator.
func NewAuthenticator(parser TokenParser, cookieName string, log *slog.Logger) *Authenticator {
	return &Authenticator{parser: parser, cookieName: cookieName, log: log}
}

// OptionalAuth кладёт пользователя в контекст, если токен валиден.
// Без токена или с невалидным токеном запрос идёт дальше анонимным.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middlewarectx.OptionalAuth"
		user, err := a.authenticate(r)
		if err != nil {
			a.log.Debug("request treated as anonymous",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err))
		}
		if user != nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth отвечает 401, если пользователя определить не удалось.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middlewarectx.RequireAuth"
		user, err := a.authenticate(r)
		if user == nil {
			a.log.Info("unauthenticated request rejected",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error(response.MsgUnauthorized))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// authenticate возвращает nil, nil если токена нет совсем.
func (a *Authenticator) authenticate(r *http.Request) (*models.User, error) {
	token := bearerToken(r)
	if token == "" && a.cookieName != "" {
		if c, err := r.Cookie(a.cookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return nil, nil
	}

	claims, err := a.parser.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.User{UUID: claims.UserUID, Email: claims.Email}, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// WithUser возвращает контекст с пользователем.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext возвращает пользователя или nil для анонимного запроса.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}
