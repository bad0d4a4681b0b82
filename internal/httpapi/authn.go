package httpapi

import (
	"net/http"
	"strings"
	"time"

	"taskdeck.org/internal/auth"
)

var publicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/",
	apiPrefix + "/users/register",
	apiPrefix + "/users/login",
	apiPrefix + "/users/google",
	apiPrefix + "/users/forgot-password",
	apiPrefix + "/users/all-username-and-profile",
}

var publicPrefixes = []string{
	apiPrefix + "/users/reset-password/",
}

// withAuth resolves the session cookie into an authenticated Session on the
// context. Missing, invalid, expired and revoked tokens all collapse into one
// 401 so a probing client learns nothing.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(a.cfg.CookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		identityID, version, err := a.codec.Verify(cookie.Value)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		ident, err := a.identities.Get(r.Context(), identityID)
		if err != nil || ident.TokenVersion != version {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		sess := auth.Session{
			IdentityID: ident.ID,
			Username:   ident.Username,
			Admin:      ident.Admin,
		}
		ctx := auth.ContextWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionOrFail pulls the authenticated session set by withAuth. A miss means
// the route table let an unauthenticated request through, which is a 401.
func sessionOrFail(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Session{}, false
	}
	return sess, true
}

// requireAdmin gates admin-only operations with a 403.
func requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return auth.Session{}, false
	}
	if !sess.Admin {
		writeError(w, r, http.StatusForbidden, "admin access required")
		return auth.Session{}, false
	}
	return sess, true
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// setSessionCookie attaches the signed session token.
func (a *API) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: a.cfg.CookieSameSite,
	})
}

// clearSessionCookie expires the session cookie immediately.
func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: a.cfg.CookieSameSite,
	})
}
