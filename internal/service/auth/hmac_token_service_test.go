package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSigningKey  = "test-signing-key-that-is-long-enough-for-hs256"
	wrongSigningKey = "wrong-signing-key-that-is-long-enough-for-hs256"
	testIssuer      = "library-api"
	testAudience    = "library-api-clients"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestTokenService(key string, lifetime time.Duration, now func() time.Time) *hmacTokenService {
	return &hmacTokenService{
		signingKey: []byte(key),
		issuer:     testIssuer,
		audience:   testAudience,
		lifetime:   lifetime,
		timeFunc:   now,
	}
}

func at(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueToken(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(testSigningKey, time.Hour, at(fixedTime))

	token, err := svc.IssueToken(context.Background(), "user-1", []string{domain.RoleAdministrator})
	require.NoError(t, err)
	require.NotEmpty(t, token.Value)
	assert.Equal(t, fixedTime.Add(time.Hour), token.ExpiresAt)
	assert.True(t, token.ExpiresAt.After(fixedTime), "expiry must be in the future at issuance")

	principal, err := svc.ValidateToken(context.Background(), token.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.Subject)
	assert.Equal(t, []string{domain.RoleAdministrator}, principal.Roles)
	assert.Equal(t, fixedTime.Unix(), principal.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), principal.ExpiresAt.Unix())
	assert.NotEmpty(t, principal.TokenID)
}

func TestIssueToken_UniqueTokenIDs(t *testing.T) {
	t.Parallel()

	svc := newTestTokenService(testSigningKey, time.Hour, at(fixedTime))
	first, err := svc.IssueToken(context.Background(), "user-1", nil)
	require.NoError(t, err)
	second, err := svc.IssueToken(context.Background(), "user-1", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.Value, second.Value)
}

func TestIssueToken_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		lifetime time.Duration
	}{
		{name: "missing signing key", key: "", lifetime: time.Hour},
		{name: "zero lifetime", key: testSigningKey, lifetime: 0},
		{name: "negative lifetime", key: testSigningKey, lifetime: -time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestTokenService(tt.key, tt.lifetime, at(fixedTime))
			token, err := svc.IssueToken(context.Background(), "user-1", nil)
			assert.Nil(t, token)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	issue := func(t *testing.T, key string) string {
		t.Helper()
		svc := newTestTokenService(key, time.Hour, at(fixedTime))
		token, err := svc.IssueToken(context.Background(), "user-1", []string{domain.RoleUser})
		require.NoError(t, err)
		return token.Value
	}

	tests := []struct {
		name      string
		setupFunc func(t *testing.T) (*hmacTokenService, string)
		wantErr   error
	}{
		{
			name: "valid token",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				return newTestTokenService(testSigningKey, time.Hour, at(fixedTime.Add(time.Minute))), issue(t, testSigningKey)
			},
		},
		{
			name: "expired token",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				return newTestTokenService(testSigningKey, time.Hour, at(fixedTime.Add(2*time.Hour))), issue(t, testSigningKey)
			},
			wantErr: domain.ErrTokenExpired,
		},
		{
			name: "expired exactly at expiry instant",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				return newTestTokenService(testSigningKey, time.Hour, at(fixedTime.Add(time.Hour))), issue(t, testSigningKey)
			},
			wantErr: domain.ErrTokenExpired,
		},
		{
			name: "expired token with invalid signature reports expiry",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				return newTestTokenService(wrongSigningKey, time.Hour, at(fixedTime.Add(2*time.Hour))), issue(t, testSigningKey)
			},
			wantErr: domain.ErrTokenExpired,
		},
		{
			name: "invalid signature",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				return newTestTokenService(wrongSigningKey, time.Hour, at(fixedTime)), issue(t, testSigningKey)
			},
			wantErr: domain.ErrTokenInvalidSignature,
		},
		{
			name: "wrong issuer",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				svc := newTestTokenService(testSigningKey, time.Hour, at(fixedTime))
				svc.issuer = "someone-else"
				return svc, issue(t, testSigningKey)
			},
			wantErr: domain.ErrTokenInvalidIssuer,
		},
		{
			name: "wrong audience",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				svc := newTestTokenService(testSigningKey, time.Hour, at(fixedTime))
				svc.audience = "other-clients"
				return svc, issue(t, testSigningKey)
			},
			wantErr: domain.ErrTokenInvalidIssuer,
		},
		{
			name: "unsigned token",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				claims := tokenClaims{RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    testIssuer,
					Subject:   "user-1",
					Audience:  jwt.ClaimStrings{testAudience},
					IssuedAt:  jwt.NewNumericDate(fixedTime),
					ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
				}}
				raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
					SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return newTestTokenService(testSigningKey, time.Hour, at(fixedTime)), raw
			},
			wantErr: domain.ErrTokenInvalidSignature,
		},
		{
			name: "missing expiry",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				claims := tokenClaims{RegisteredClaims: jwt.RegisteredClaims{
					Issuer:   testIssuer,
					Subject:  "user-1",
					Audience: jwt.ClaimStrings{testAudience},
					IssuedAt: jwt.NewNumericDate(fixedTime),
				}}
				raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
					SignedString([]byte(testSigningKey))
				require.NoError(t, err)
				return newTestTokenService(testSigningKey, time.Hour, at(fixedTime)), raw
			},
			wantErr: domain.ErrTokenMalformed,
		},
		{
			name: "malformed token",
			setupFunc: func(t *testing.T) (*hmacTokenService, string) {
				return newTestTokenService(testSigningKey, time.Hour, at(fixedTime)), "this.is.not.a.valid.jwt.token"
			},
			wantErr: domain.ErrTokenMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, raw := tt.setupFunc(t)
			principal, err := svc.ValidateToken(context.Background(), raw)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrAuthentication)
				assert.Nil(t, principal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", principal.Subject)
		})
	}
}

func TestNewTokenService(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService(configFor("", 60))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewTokenService(configFor(testSigningKey, 0))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	svc, err := NewTokenService(configFor(testSigningKey, 60))
	require.NoError(t, err)
	token, err := svc.IssueToken(context.Background(), "user-1", nil)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), token.Value)
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "missing header", header: "", wantErr: domain.ErrTokenMissing},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: domain.ErrTokenMalformed},
		{name: "no token", header: "Bearer", wantErr: domain.ErrTokenMalformed},
		{name: "extra parts", header: "Bearer a b", wantErr: domain.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BearerToken(tt.header)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrincipal_HasAnyRole(t *testing.T) {
	t.Parallel()

	p := &Principal{Subject: "user-1", Roles: []string{domain.RoleUser}}
	assert.True(t, p.HasAnyRole())
	assert.True(t, p.HasAnyRole(domain.RoleAdministrator, domain.RoleUser))
	assert.False(t, p.HasAnyRole(domain.RoleAdministrator))

	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.HasAnyRole(domain.RoleUser))
}
