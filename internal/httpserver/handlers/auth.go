package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/stashspark/stashspark/internal/domain"
	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/httpserver/mw"
	"github.com/stashspark/stashspark/internal/logger"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (c *credentialsRequest) validate() error {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", domain.ErrValidation)
	}
	if len(c.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	return nil
}

func setSessionCookie(w http.ResponseWriter, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register creates an account and logs it in immediately.
func Register(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		if err := req.validate(); err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		user, err := d.Store.CreateUser(r.Context(), req.Email, string(hash))
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		sessionID, err := d.Sessions.Create(r.Context(), user.ID)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		setSessionCookie(w, sessionID, int(d.SessionTTL.Seconds()))

		d.Logger.Info("user registered", logger.Int64("user_id", user.ID))
		writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email})
	}
}

// Login verifies credentials and issues a session cookie. Unknown
// email and wrong password are indistinguishable on the wire.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))

		user, err := d.Store.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			writeErrMsg(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			writeErrMsg(w, http.StatusUnauthorized, "invalid email or password")
			return
		}

		sessionID, err := d.Sessions.Create(r.Context(), user.ID)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		setSessionCookie(w, sessionID, int(d.SessionTTL.Seconds()))

		d.Logger.Info("user logged in", logger.Int64("user_id", user.ID))
		writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
	}
}

// Logout deletes the session and expires the cookie. Logging out
// without a session is fine.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(mw.SessionCookie); err == nil {
			if err := d.Sessions.Delete(r.Context(), cookie.Value); err != nil {
				d.Logger.Warn("session delete failed", logger.Error(err))
			}
		}
		setSessionCookie(w, "", -1)
		writeMessage(w, http.StatusOK, "logged out")
	}
}

// Me returns the authenticated user.
func Me(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := d.Store.GetUser(r.Context(), mw.UserID(r.Context()))
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email})
	}
}
