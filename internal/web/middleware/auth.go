package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/soccerstat/internal/config"
	"github.com/go-chi/render"
)

// APIKeyAuth rejects requests without a valid X-API-Key when the security
// config requires one. With RequireAPIKey unset every request passes.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			switch {
			case key == "":
				slog.Warn("auth: missing API key", "path", r.URL.Path, "ip", ClientIP(r))
				denied(w, r, http.StatusUnauthorized, "missing API key", "AUTH001")
				return
			case !isValidAPIKey(key, cfg.APIKeys):
				slog.Warn("auth: invalid API key", "path", r.URL.Path, "ip", ClientIP(r))
				denied(w, r, http.StatusForbidden, "invalid API key", "AUTH002")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func denied(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{
		"error":   message,
		"message": message,
		"action":  "Send a valid key in the X-API-Key header",
		"code":    code,
	})
}

// isValidAPIKey compares against every configured key in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, k := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return valid == 1
}
