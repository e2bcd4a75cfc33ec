package web

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"

	"downtimelog/config"
)

// Store holds the username/isAuthenticated pair in a client-side
// cookie. Nothing is tracked server-side; logging out only clears the
// cookie. This mirrors the browser localStorage flag the SPA used and
// is not a server session.
var Store *sessions.CookieStore

func InitStore() {
	// Derive two 32-byte keys from the session key to ensure secure encryption
	// Auth key for signing (HMAC)
	authKey := sha256.Sum256([]byte(config.AppConfig.SessionKey + "auth"))
	// Encryption key for content encryption (AES)
	encKey := sha256.Sum256([]byte(config.AppConfig.SessionKey + "encryption"))

	Store = sessions.NewCookieStore(authKey[:], encKey[:])

	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   config.AppConfig.ListenPort != 5001, // Default to true unless dev port
		SameSite: http.SameSiteLaxMode,
	}
}

const SessionName = "downtime-session"

// CurrentUsername returns the remembered username, or "" when the
// isAuthenticated flag is absent.
func CurrentUsername(r *http.Request) string {
	session, _ := Store.Get(r, SessionName)
	flagged, _ := session.Values["isAuthenticated"].(bool)
	if !flagged {
		return ""
	}
	username, _ := session.Values["username"].(string)
	return username
}

func SetSession(w http.ResponseWriter, r *http.Request, username string) {
	session, _ := Store.Get(r, SessionName)
	session.Values["username"] = username
	session.Values["isAuthenticated"] = true
	session.Save(r, w)
}

func ClearSession(w http.ResponseWriter, r *http.Request) {
	session, _ := Store.Get(r, SessionName)
	session.Options.MaxAge = -1
	session.Save(r, w)
}
