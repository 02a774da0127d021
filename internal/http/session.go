package http

import (
	"context"
	"net/http"

	"github.com/Samrat740/sleep-apnea-screening/pkg/utils"

	"github.com/google/uuid"
)

// SessionCookieName без Max-Age: cookie живёт, пока открыта браузерная сессия
const SessionCookieName = "screening_session"

type sessionKey struct{}

// sessionMiddleware достаёт id сессии из cookie или заводит новый
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id uuid.UUID
		if c, err := r.Cookie(SessionCookieName); err == nil && utils.IsValidUUID(c.Value) {
			id = uuid.MustParse(c.Value)
		} else {
			id = utils.NewUUID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id.String(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

// SessionID возвращает id сессии, положенный sessionMiddleware
func SessionID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(sessionKey{}).(uuid.UUID)
	return id
}
