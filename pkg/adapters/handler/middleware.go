package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

const authCookie = "auth_token"

type ownerKey struct{}

// WithOwner stores the authenticated owner id in ctx
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the owner id set by the auth middleware
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerKey{}).(string)
	return id, ok && id != ""
}

// TokenVerifier checks HS256 session tokens and rejects revoked session ids
type TokenVerifier struct {
	secret   []byte
	sessions ports.SessionStore
}

func NewTokenVerifier(secret string, sessions ports.SessionStore) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), sessions: sessions}
}

func (v *TokenVerifier) Verify(ctx context.Context, credential string) (string, error) {
	claims, err := v.parse(credential)
	if err != nil || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}

	if claims.ID != "" && v.sessions != nil {
		revoked, err := v.sessions.IsSessionRevoked(ctx, claims.ID)
		if err != nil {
			return "", domain.Upstream("sessions", err)
		}
		if revoked {
			return "", domain.ErrUnauthorized
		}
	}
	return claims.Subject, nil
}

func (v *TokenVerifier) parse(credential string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// credentialFrom prefers an Authorization bearer token over the session cookie
func credentialFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(authCookie); err == nil {
		return cookie.Value
	}
	return ""
}

type Middleware struct {
	verifier ports.IdentityVerifier
	log      logger.Logger
}

func NewMiddleware(verifier ports.IdentityVerifier, log logger.Logger) *Middleware {
	return &Middleware{verifier: verifier, log: log}
}

// AuthMiddleware resolves the request credential to an owner id
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := credentialFrom(r)
		if credential == "" {
			m.deny(w, r, domain.ErrUnauthorized)
			return
		}

		owner, err := m.verifier.Verify(r.Context(), credential)
		if err != nil {
			m.deny(w, r, err)
			return
		}

		ctx := WithOwner(r.Context(), owner)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx, m.log).With(logger.String("owner", owner)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, domain.ErrUnauthorized) {
		writeError(w, r, m.log, err)
		return
	}
	if isAPIRequest(r) {
		writeFail(w, http.StatusUnauthorized, "a valid session is required", nil)
		return
	}
	http.Redirect(w, r, "/auth/google/login", http.StatusTemporaryRedirect)
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// RequestLogger attaches a request-scoped logger and logs each completed request
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		log := m.log.With(logger.String("request_id", requestID))
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(logger.WithContext(r.Context(), log)))

		log.Info("Request completed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.status),
			logger.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

var _ ports.IdentityVerifier = (*TokenVerifier)(nil)
