package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"mime"
	"net/http"

	"github.com/pavelanni/pdfquiz/internal/model"
	"github.com/pavelanni/pdfquiz/internal/store"
)

const (
	sessionCookieName = "quiz_session"
	csrfCookieName    = "csrf_token"
)

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// path prefixes an application path with the configured base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

// BasePathMiddleware makes the base path available to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionMiddleware attaches the anonymous quiz session to the request,
// issuing a new session cookie when the client has none.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(sessionCookieName); err == nil && validSessionID(cookie.Value) {
			id = cookie.Value
		} else {
			id, err = store.NewSessionID()
			if err != nil {
				slog.Error("failed to generate session ID", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			cookie := &http.Cookie{
				Name:     sessionCookieName,
				Value:    id,
				Path:     h.cookiePath(),
				HttpOnly: true,
				Secure:   h.config.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			}
			if h.config.SessionTTL > 0 {
				cookie.MaxAge = int(h.config.SessionTTL.Seconds())
			}
			http.SetCookie(w, cookie)
		}

		ctx := model.ContextWithSessionID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validSessionID(id string) bool {
	if len(id) != 64 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

// limitBody caps request bodies at the upload limit.
func (h *Handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// issueCSRFToken sets a fresh token cookie and returns a request whose
// context carries the token for rendering.
func (h *Handler) issueCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
	token, err := generateCSRFToken()
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return r.WithContext(model.ContextWithCSRFToken(r.Context(), token)), nil
}

// parseForm parses urlencoded and multipart bodies alike.
func (h *Handler) parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(h.config.MaxUploadBytes)
	}
	return r.ParseForm()
}

// csrfMiddleware implements the double-submit cookie pattern: safe requests
// get a fresh token, unsafe ones must echo the cookie in the csrf_token field.
func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			r, err := h.issueCSRFToken(w, r)
			if err != nil {
				slog.Error("failed to generate CSRF token", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if err := h.parseForm(r); err != nil && isTooLarge(err) {
			slog.Warn("request body too large", "path", r.URL.Path, "limit", h.config.MaxUploadBytes)
			r, err := h.issueCSRFToken(w, r)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			_, msg := h.errorMessage(r.Context(), h.tooLarge())
			h.renderIndex(w, r, http.StatusRequestEntityTooLarge, msg)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			slog.Warn("CSRF cookie missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		formToken := r.FormValue("csrf_token")
		if formToken == "" {
			slog.Warn("CSRF form token missing")
			http.Error(w, "csrf token missing", http.StatusForbidden)
			return
		}

		if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
			slog.Warn("CSRF token mismatch")
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}

		r, err = h.issueCSRFToken(w, r)
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r)
	})
}
