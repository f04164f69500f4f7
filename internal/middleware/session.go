package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const sessionKey contextKey = "cartSession"

const (
	sessionCookieName = "cart_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// CartSession определяет, чья корзина используется в запросе: корзина пользователя
// для авторизованных запросов и корзина из cookie cart_session для гостей.
// Гостю без cookie выдаётся новый идентификатор.
func CartSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFromContext(r.Context()); ok {
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), "user:"+p.ID)))
			return
		}

		var id string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				id = cookie.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(sessionCookieTTL),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), "guest:"+id)))
	})
}

// WithSession возвращает контекст с идентификатором корзины.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

// SessionFromContext извлекает идентификатор корзины из контекста запроса.
func SessionFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey).(string)
	return id, ok && id != ""
}
