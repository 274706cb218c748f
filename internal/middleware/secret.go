package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"jengamate/backend/internal/httpjson"
)

// SyncSecretHeader carries the shared secret on server-to-server calls.
const SyncSecretHeader = "x-sync-secret"

// RequireSyncSecret rejects requests whose shared secret (header, then the
// `secret` query parameter) is absent or does not match. An unset server
// secret rejects everything.
func RequireSyncSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ValidSyncSecret(r, secret) {
				httpjson.Text(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ValidSyncSecret(r *http.Request, secret string) bool {
	got := r.Header.Get(SyncSecretHeader)
	if got == "" {
		got = r.URL.Query().Get("secret")
	}
	if got == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
}

// RequireCaller admits server-to-server callers that present either the
// shared secret or one of the service keys, as `Authorization: Bearer <key>`
// or in the `apikey` header. Empty keys never match.
func RequireCaller(secret string, serviceKeys ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ValidSyncSecret(r, secret) && !validServiceKey(r, serviceKeys) {
				httpjson.Text(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validServiceKey(r *http.Request, keys []string) bool {
	presented := []string{r.Header.Get("apikey")}
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		presented = append(presented, strings.TrimSpace(auth[7:]))
	}
	for _, got := range presented {
		if got == "" {
			continue
		}
		for _, key := range keys {
			if key != "" && subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1 {
				return true
			}
		}
	}
	return false
}
