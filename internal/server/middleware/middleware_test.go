package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/auth"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// contextHandler captures context values set by middleware so tests can
// assert that the correct tenant, user, and role were injected.
type contextHandler struct {
	tenantID uuid.UUID
	actorID  string
	role     string
	called   bool
}

func (h *contextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.tenantID, _ = middleware.TenantIDFromContext(r.Context())
	h.actorID, _ = middleware.ActorIDFromContext(r.Context())
	h.role, _ = middleware.RoleFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

// setTenant injects a tenant ID into the request context.
func setTenant(r *http.Request, tenantID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyTenantID, tenantID)
	return r.WithContext(ctx)
}

// ===========================================================================
// 1. Context helpers
// ===========================================================================

func TestTenantIDFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		want := uuid.New()
		ctx := context.WithValue(context.Background(), middleware.ContextKeyTenantID, want)

		got, ok := middleware.TenantIDFromContext(ctx)

		require.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		got, ok := middleware.TenantIDFromContext(context.Background())

		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, got)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()

		// Store a string instead of uuid.UUID.
		ctx := context.WithValue(context.Background(), middleware.ContextKeyTenantID, "not-a-uuid")

		got, ok := middleware.TenantIDFromContext(ctx)

		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, got)
	})
}

func TestActorIDFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyActorID, "auditor-17")

		got, ok := middleware.ActorIDFromContext(ctx)

		require.True(t, ok)
		assert.Equal(t, "auditor-17", got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		got, ok := middleware.ActorIDFromContext(context.Background())

		assert.False(t, ok)
		assert.Empty(t, got)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyActorID, uuid.New())

		got, ok := middleware.ActorIDFromContext(ctx)

		assert.False(t, ok)
		assert.Empty(t, got)
	})
}

func TestRoleFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyUserRole, "admin")

		got, ok := middleware.RoleFromContext(ctx)

		require.True(t, ok)
		assert.Equal(t, "admin", got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		got, ok := middleware.RoleFromContext(context.Background())

		assert.False(t, ok)
		assert.Empty(t, got)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyUserRole, 123)

		got, ok := middleware.RoleFromContext(ctx)

		assert.False(t, ok)
		assert.Empty(t, got)
	})
}

// ===========================================================================
// 2. RequireTenant middleware
// ===========================================================================

func TestRequireTenant_PassesWithValidTenantID(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireTenant()(okHandler)
	req := setTenant(httptest.NewRequest(http.MethodGet, "/", http.NoBody), uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireTenant_BlocksWhenTenantAbsent(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireTenant()(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "valid tenant required")
}

func TestRequireTenant_BlocksNilTenantID(t *testing.T) {
	t.Parallel()

	handler := middleware.RequireTenant()(okHandler)
	req := setTenant(httptest.NewRequest(http.MethodGet, "/", http.NoBody), uuid.Nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "valid tenant required")
}

// ===========================================================================
// 3. RateLimit middleware
// ===========================================================================

func TestRateLimit_NoTenantInContext_PassesThrough(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimit(t.Context(), 1, 1)(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_FirstRequestWithTenant_Passes(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimit(t.Context(), 1, 1)(okHandler)
	req := setTenant(httptest.NewRequest(http.MethodGet, "/", http.NoBody), uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_BurstExceeded_Returns429(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	// Very low rate (effectively zero refill during the test) with burst of 2.
	handler := middleware.RateLimit(t.Context(), 0.001, 2)(okHandler)

	// First two requests consume the burst.
	for i := range 2 {
		req := setTenant(httptest.NewRequest(http.MethodGet, "/", http.NoBody), tenantID)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equalf(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	// Third request exceeds burst.
	req := setTenant(httptest.NewRequest(http.MethodGet, "/", http.NoBody), tenantID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimit_IndependentPerTenant(t *testing.T) {
	t.Parallel()

	tenantA := uuid.New()
	tenantB := uuid.New()
	handler := middleware.RateLimit(t.Context(), 0.001, 1)(okHandler)

	// Exhaust tenant A's burst.
	reqA := setTenant(httptest.NewRequest(http.MethodGet, "/", http.NoBody), tenantA)
	recA := httptest.NewRecorder()
	handler.ServeHTTP(recA, reqA)
	require.Equal(t, http.StatusOK, recA.Code)

	// Tenant A is now exhausted.
	reqA2 := setTenant(httptest.NewRequest(http.MethodGet, "/", http.NoBody), tenantA)
	recA2 := httptest.NewRecorder()
	handler.ServeHTTP(recA2, reqA2)
	assert.Equal(t, http.StatusTooManyRequests, recA2.Code)

	// Tenant B should still be allowed.
	reqB := setTenant(httptest.NewRequest(http.MethodGet, "/", http.NoBody), tenantB)
	recB := httptest.NewRecorder()

	handler.ServeHTTP(recB, reqB)

	assert.Equal(t, http.StatusOK, recB.Code)
}

func TestRateLimitByIP_BurstExceeded_Returns429(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimitByIP(t.Context(), 0.001, 1)(okHandler)

	first := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	first.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	second.RemoteAddr = "10.0.0.1:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ===========================================================================
// 4. Auth middleware
// ===========================================================================

const testJWTSecret = "test-jwt-secret-for-middleware-tests"

func TestAuth_ValidToken_PopulatesContext(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	token, err := auth.IssueAccessToken(testJWTSecret, tenantID, "lead-auditor@acme", middleware.RoleAdmin, 15*time.Minute)
	require.NoError(t, err)

	capture := &contextHandler{}
	handler := middleware.Auth(testJWTSecret)(capture)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.True(t, capture.called, "inner handler must be called")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tenantID, capture.tenantID)
	assert.Equal(t, "lead-auditor@acme", capture.actorID)
	assert.Equal(t, middleware.RoleAdmin, capture.role)
}

func TestAuth_RejectedTokens(t *testing.T) {
	t.Parallel()

	expired, err := auth.IssueAccessToken(testJWTSecret, uuid.New(), "a", middleware.RoleAuditor, -1*time.Second)
	require.NoError(t, err)
	wrongSecret, err := auth.IssueAccessToken("another-secret", uuid.New(), "a", middleware.RoleAuditor, 15*time.Minute)
	require.NoError(t, err)
	noActor, err := auth.IssueAccessToken(testJWTSecret, uuid.New(), "", middleware.RoleAuditor, 15*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "totally.invalid.token"},
		{name: "expired", token: expired},
		{name: "wrong secret", token: wrongSecret},
		{name: "missing actor", token: noActor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.Auth(testJWTSecret)(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "Unauthorized")
		})
	}
}

func TestAuth_BearerFormat(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueAccessToken(testJWTSecret, uuid.New(), "a", middleware.RoleViewer, 15*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "uppercase Bearer", authHeader: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "lowercase bearer", authHeader: "bearer " + token, wantStatus: http.StatusOK},
		{name: "mixed case BEARER", authHeader: "BEARER " + token, wantStatus: http.StatusOK},
		{name: "Basic scheme falls through to 401", authHeader: "Basic " + token, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.Auth(testJWTSecret)(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set("Authorization", tt.authHeader)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuth_NoCredentials_Returns401(t *testing.T) {
	t.Parallel()

	handler := middleware.Auth(testJWTSecret)(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing or invalid credentials")
}
