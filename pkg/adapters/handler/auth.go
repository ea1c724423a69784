package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/config"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

const (
	sessionTTL     = 24 * time.Hour
	userInfoURL    = "https://www.googleapis.com/oauth2/v2/userinfo"
	revokeDeadline = 3 * time.Second
)

type AuthHandler struct {
	oauthConfig   *oauth2.Config
	verifier      *TokenVerifier
	sessions      ports.SessionStore
	jwtSecret     []byte
	frontendURL   string
	allowedEmails []string
	isProduction  bool
	log           logger.Logger
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewAuthHandler(cfg *config.Config, sessions ports.SessionStore, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		verifier:      NewTokenVerifier(cfg.JWTSecret, sessions),
		sessions:      sessions,
		jwtSecret:     []byte(cfg.JWTSecret),
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.IsProduction(),
		log:           log,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := h.generateStateOauthCookie(w)
	url := h.oauthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	oauthState, err := r.Cookie("oauthstate")
	if err != nil {
		log.Warn("Callback missing oauthstate cookie", logger.Error(err))
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if r.FormValue("state") != oauthState.Value {
		log.Warn("Callback with invalid oauth state")
		writeFail(w, http.StatusBadRequest, "invalid oauth state", nil)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		log.Error("Code exchange failed", logger.Error(err))
		writeFail(w, http.StatusInternalServerError, "code exchange failed", nil)
		return
	}

	googleUser, err := h.fetchUser(r.Context(), token)
	if err != nil {
		log.Error("Failed getting user info", logger.Error(err))
		writeFail(w, http.StatusInternalServerError, "failed getting user info", nil)
		return
	}

	if len(h.allowedEmails) > 0 && !slices.Contains(h.allowedEmails, googleUser.Email) {
		log.Warn("Email not in allowlist", logger.String("email", googleUser.Email))
		writeFail(w, http.StatusForbidden, "your email is not in the allowlist", nil)
		return
	}

	tokenString, expiresAt, err := h.issueToken(googleUser.Email)
	if err != nil {
		log.Error("Failed signing session token", logger.Error(err))
		writeFail(w, http.StatusInternalServerError, "", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    tokenString,
		Expires:  expiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("Login successful", logger.String("email", googleUser.Email))
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchUser(ctx context.Context, token *oauth2.Token) (*GoogleUser, error) {
	resp, err := h.oauthConfig.Client(ctx, token).Get(userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var u GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// issueToken signs a session token whose ID can later be revoked
func (h *AuthHandler) issueToken(subject string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(sessionTTL)
	claims := &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	return signed, expiresAt, err
}

// Logout revokes the session when it can and always reports success.
// A failed revocation is logged; the cookie is cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	if credential := credentialFrom(r); credential != "" && h.sessions != nil {
		if claims, err := h.verifier.parse(credential); err == nil && claims.ID != "" {
			expiresAt := time.Now().Add(sessionTTL)
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}

			ctx, cancel := context.WithTimeout(r.Context(), revokeDeadline)
			if err := h.sessions.RevokeSession(ctx, claims.ID, expiresAt); err != nil {
				log.Warn("Session revocation failed", logger.Error(err))
			}
			cancel()
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}
