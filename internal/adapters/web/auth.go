package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"backoffice/internal/app"
	"backoffice/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

const authCookie = "auth_token"

type principalKey struct{}

// principalFromContext returns the authenticated caller stored by RequireAuth.
func principalFromContext(ctx context.Context) (core.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(core.Principal)
	return p, ok
}

// jwtClaims is the JWT payload used for signing and parsing.
type jwtClaims struct {
	UserID     int    `json:"user_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	SupplierID *int   `json:"supplier_id,omitempty"`
	jwt.RegisteredClaims
}

func (h *Handler) signToken(session *app.UserSession) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID:     session.UserID,
		Username:   session.Username,
		Role:       string(session.Role),
		SupplierID: session.SupplierID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.opts.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.opts.JWTSecret))
}

func (h *Handler) parseToken(raw string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.opts.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// tokenFromRequest reads the auth cookie, falling back to an Authorization bearer header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(authCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// RequireAuth is chi middleware that validates the session token and injects the
// caller's core.Principal into the request context. Returns 401 if the token is
// absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		claims, err := h.parseToken(raw)
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		role, err := core.ParseRole(claims.Role)
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, core.Principal{
			UserID:     claims.UserID,
			Username:   claims.Username,
			Role:       role,
			SupplierID: claims.SupplierID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req app.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.AuthenticateUser(r.Context(), req)
	if err != nil {
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	signed, err := h.signToken(session)
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.opts.TokenTTL.Seconds()),
	})

	type loginResponse struct {
		*app.UserSession
		Token string `json:"token"`
	}
	writeJSON(w, loginResponse{UserSession: session, Token: signed})
}

// logout handles POST /api/auth/logout and clears the auth cookie.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	user, err := h.svc.GetUser(r.Context(), p.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type meResponse struct {
		UserID     int       `json:"user_id"`
		Username   string    `json:"username"`
		Email      string    `json:"email"`
		Role       core.Role `json:"role"`
		SupplierID *int      `json:"supplier_id,omitempty"`
	}
	writeJSON(w, meResponse{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		SupplierID: p.SupplierID,
	})
}
