package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/library-api/internal/config"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/platform/logger"
)

// hmacTokenService is an implementation of TokenService using HMAC-SHA256 signing.
type hmacTokenService struct {
	signingKey []byte
	issuer     string
	audience   string
	lifetime   time.Duration
	timeFunc   func() time.Time // Injectable for testing
}

// tokenClaims defines the structure of the claims we sign
type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Ensure hmacTokenService implements TokenService interface
var _ TokenService = (*hmacTokenService)(nil)

// NewTokenService creates a token service from the auth configuration.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	s := &hmacTokenService{
		signingKey: []byte(cfg.TokenSigningKey),
		issuer:     cfg.TokenIssuer,
		audience:   cfg.TokenAudience,
		lifetime:   cfg.TokenLifetime(),
		timeFunc:   time.Now,
	}
	if err := s.checkConfig(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *hmacTokenService) checkConfig() error {
	if len(s.signingKey) == 0 {
		return domain.NewConfigurationError("token signing key is not configured", nil)
	}
	if s.lifetime <= 0 {
		return domain.NewConfigurationError(
			fmt.Sprintf("token lifetime must be positive, got %s", s.lifetime), nil)
	}
	return nil
}

// IssueToken creates a signed HS256 token.
func (s *hmacTokenService) IssueToken(
	ctx context.Context,
	subject string,
	roles []string,
) (*Token, error) {
	if err := s.checkConfig(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	now := s.timeFunc()
	expiresAt := now.Add(s.lifetime)

	claims := tokenClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign token",
			"error", err,
			"subject", subject,
			"signing_method", jwt.SigningMethodHS256.Name)
		return nil, fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}

	// exp is serialized at second precision
	return &Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ValidateToken validates raw and returns its principal.
func (s *hmacTokenService) ValidateToken(ctx context.Context, raw string) (*Principal, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	// Expiry wins over every other failure, so it is checked before the signature.
	unverified := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, unverified); err != nil {
		log.Debug("token validation failed: malformed token", "error", err)
		return nil, domain.NewAuthenticationError(domain.ReasonMalformed, "malformed token", err)
	}
	if unverified.ExpiresAt != nil && !now.Before(unverified.ExpiresAt.Time) {
		log.Debug("token validation failed: token expired",
			"expiry", unverified.ExpiresAt.Time,
			"token_id", unverified.ID)
		return nil, domain.NewAuthenticationError(domain.ReasonExpired, "token has expired", nil)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time {
			return now
		}),
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	}, parserOpts...)
	if err != nil {
		authErr := mapValidationError(err)
		log.Debug("token validation failed",
			"reason", authErr.Reason,
			"error", err)
		return nil, authErr
	}

	if !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		log.Debug("token validation failed: incomplete claims")
		return nil, domain.NewAuthenticationError(domain.ReasonMalformed, "malformed token", nil)
	}

	log.Debug("token validated successfully",
		"subject", claims.Subject,
		"token_id", claims.ID,
		"expiry", claims.ExpiresAt.Time)

	return &Principal{
		Subject:   claims.Subject,
		Roles:     claims.Roles,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		TokenID:   claims.ID,
	}, nil
}

func mapValidationError(err error) *domain.Error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.NewAuthenticationError(domain.ReasonExpired, "token has expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.NewAuthenticationError(domain.ReasonInvalidSignature, "invalid token signature", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return domain.NewAuthenticationError(
			domain.ReasonInvalidIssuerOrAudience, "token issuer or audience is not accepted", err)
	default:
		return domain.NewAuthenticationError(domain.ReasonMalformed, "malformed token", err)
	}
}
