package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/soridam/contest-system/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Определяем константы для имен JWT claims
const (
	jwtClaimSubject        = "sub"
	jwtClaimName           = "name"
	jwtClaimRole           = "role"
	jwtClaimSuperEvaluator = "super_evaluator"
)

var ErrNoIdentity = errors.New("caller identity not found in context")

// Authenticate проверяет Bearer-токен и кладёт личность вызывающего
// в контекст запроса. Токены выпускает внешний сервис аутентификации —
// здесь только проверка подписи и извлечение claims.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := identityFromClaims(claims)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromClaims(claims jwt.MapClaims) (models.Identity, error) {
	sub, ok := claims[jwtClaimSubject].(string)
	if !ok || sub == "" {
		return models.Identity{}, fmt.Errorf("missing '%s' claim in token", jwtClaimSubject)
	}
	name, _ := claims[jwtClaimName].(string)

	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return models.Identity{}, fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	role := models.UserRole(roleStr)
	if !models.IsValidUserRole(role) {
		return models.Identity{}, fmt.Errorf("invalid role value in claim: %q", roleStr)
	}

	super, _ := claims[jwtClaimSuperEvaluator].(bool)

	return models.Identity{
		ID:             sub,
		DisplayName:    name,
		Role:           role,
		SuperEvaluator: super,
	}, nil
}

// IdentityFromContext достаёт личность вызывающего из контекста запроса.
func IdentityFromContext(ctx context.Context) (models.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	if !ok {
		return models.Identity{}, ErrNoIdentity
	}
	return identity, nil
}
