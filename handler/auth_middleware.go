package handler

import (
	"context"
	"net/http"
	"strings"

	"saveai-api/common"
	"saveai-api/model"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*model.AppClaims, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// token's claims on the request context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				err := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
				err.Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				err := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
				err.Send(w)
				return
			}

			claims, err := verifier.VerifyToken(headerParts[1])
			if err != nil {
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err)
				appErr.Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission lets the request through only when the authenticated
// claims grant permission p. It must run after AuthMiddleware.
func RequirePermission(p string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !claims.Has(p) {
				err := common.NewAppError(http.StatusForbidden, "Access denied. Missing permission: "+p, nil)
				err.Send(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AppClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*model.AppClaims)
	return claims, ok && claims != nil
}

// callerFrom returns the authenticated claims or a 401.
func callerFrom(r *http.Request) (*model.AppClaims, *common.AppError) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return nil, common.NewAppError(http.StatusUnauthorized, "Missing authentication claims", nil)
	}
	return claims, nil
}
