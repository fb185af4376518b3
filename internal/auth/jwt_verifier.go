package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"prdtool/internal/domain"
	"prdtool/internal/domain/models"
)

// allowedAlgorithms blocks algorithm confusion (e.g. "none" or HS256 signed
// with a public key).
var allowedAlgorithms = []string{"RS256", "ES256"}

// SupabaseJWTVerifier implements JWTVerifier using JWKS from Supabase.
type SupabaseJWTVerifier struct {
	keyfunc jwt.Keyfunc
	logger  *slog.Logger
}

// NewJWTVerifier fetches public keys from a JWKS endpoint. keyfunc caches
// the set and refreshes it according to HTTP cache headers.
func NewJWTVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return NewKeyfuncVerifier(jwks.Keyfunc, logger), nil
}

// NewKeyfuncVerifier verifies tokens against an arbitrary key lookup.
func NewKeyfuncVerifier(kf jwt.Keyfunc, logger *slog.Logger) *SupabaseJWTVerifier {
	return &SupabaseJWTVerifier{keyfunc: kf, logger: logger}
}

// VerifyToken validates a JWT token and extracts Supabase claims.
func (v *SupabaseJWTVerifier) VerifyToken(tokenString string) (*models.SupabaseClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SupabaseClaims{}, v.keyfunc,
		jwt.WithValidMethods(allowedAlgorithms),
	)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.SupabaseClaims)
	if !ok {
		v.logger.Error("unexpected claims type")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Anonymous sessions may not own PRDs
	if claims.Role != "authenticated" {
		v.logger.Debug("token has invalid role", "role", claims.Role, "user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close is a no-op; keyfunc v3 manages its own refresh goroutine lifetime
// through the context passed to NewJWTVerifier.
func (v *SupabaseJWTVerifier) Close() error {
	return nil
}
