// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"strings"

	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/ctxutil"
	"github.com/taibuivan/multitax/internal/platform/respond"
	"github.com/taibuivan/multitax/internal/platform/sec"
)

// TokenVerifier checks a bearer token and returns its claims. [sec.TokenService]
// implements it.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate attaches the claims of a valid bearer token to the request
// context. Requests without an Authorization header pass through as
// anonymous, since term listings and post queries are public; a header that
// is present but malformed or expired is rejected with 401 rather than
// silently downgraded.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, tokenStr, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	}
}

// RequireRole admits callers whose role ranks at least role, e.g. admins
// for count repair. It runs after [Authenticate]: anonymous callers get 401,
// lower roles 403.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			userRole := sec.UserRole(claims.Role)
			if !userRole.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// CapabilityResolver names the capability a request needs. Term endpoints
// resolve it from the taxonomy in the URL, since every taxonomy may declare
// its own capability names.
type CapabilityResolver func(request *http.Request) (string, error)

// RequireCapability blocks requests whose token does not carry the capability
// named by resolve, either through the role or through an explicit grant.
//
// # Flow
//  1. Require authentication, as [RequireRole] does.
//  2. Resolve the capability; resolution errors (e.g. unknown taxonomy) are returned as-is.
//  3. Abort with HTTP 403 Forbidden when [sec.AuthClaims.Can] denies it.
func RequireCapability(resolve CapabilityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			capability, err := resolve(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			if !claims.Can(capability) {
				respond.Error(writer, request, apperr.Forbidden("Missing capability "+capability))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
