package middle

/**
- Work of this file -> Admin auth:
	- Validates the bearer token
	- Checks the admin subject
	- Stores claims in context
**/

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pulsemon/internals/security"
	"pulsemon/pkg/apperror"
	"pulsemon/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

type adminCtxKeyType struct{}

var adminCtxKey = adminCtxKeyType{}

type AuthMiddleware struct {
	tokenSvc *security.TokenService
}

func NewAuthMiddleware(tokenSvc *security.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenSvc: tokenSvc,
	}
}

func (a *AuthMiddleware) Handle(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reqID := middleware.GetReqID(ctx)

		token, err := a.extractBearerToken(r)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, err.Error())
			return
		}

		claims, err := a.tokenSvc.ValidateAccessToken(token)
		if err != nil {
			utils.FromAppError(w, reqID, err)
			return
		}

		if claims.Subject != security.AdminSubject {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "unauthorised")
			return
		}

		newCtx := context.WithValue(ctx, adminCtxKey, claims)
		next.ServeHTTP(w, r.WithContext(newCtx))
	}

	return http.HandlerFunc(fn)
}

func (*AuthMiddleware) extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")

	if authHeader == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid Authorization header")
	}

	return parts[1], nil
}

func AdminFromContext(ctx context.Context) (*security.AdminClaims, bool) {
	claims, ok := ctx.Value(adminCtxKey).(*security.AdminClaims)
	return claims, ok
}
