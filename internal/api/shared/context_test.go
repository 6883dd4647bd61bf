package shared

import (
	"context"
	"testing"

	"github.com/phrazzld/library-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx), "Expected empty trace ID in original context")

	ctxWithTrace := SetTraceID(ctx)
	traceID := GetTraceID(ctxWithTrace)
	assert.Len(t, traceID, 32, "Expected trace ID length to be 32 hex characters (16 bytes)")

	assert.Empty(t, GetTraceID(ctx), "Expected original context to remain unchanged")
}

func TestWithTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background(), "host/abc-000001")
	assert.Equal(t, "host/abc-000001", GetTraceID(ctx))

	ctx = WithTraceID(context.Background(), "")
	assert.Len(t, GetTraceID(ctx), 32, "empty ID should be replaced by a generated one")
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestTraceIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := GetTraceID(SetTraceID(context.Background()))
		require.False(t, seen[id], "duplicate trace ID %s", id)
		seen[id] = true
	}
}

func TestFallbackTraceID(t *testing.T) {
	assert.Len(t, generateFallbackTraceID(), 32)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	p := &auth.Principal{Subject: "user-1", Roles: []string{"Administrator"}}
	got, ok := PrincipalFromContext(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Same(t, p, got)

	_, ok = PrincipalFromContext(WithPrincipal(context.Background(), nil))
	assert.False(t, ok, "nil principal should not count as authenticated")
}
