package auth

import "prdtool/internal/domain/models"

// JWTVerifier verifies bearer tokens. The middleware only needs the claims;
// how keys are obtained is up to the implementation.
type JWTVerifier interface {
	// VerifyToken returns the claims of a valid token, or domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases resources held by the verifier
	Close() error
}
