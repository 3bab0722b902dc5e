package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/server/middleware"
)

// apiError maps a service error to the HTTP status of its domain kind.
func apiError(msg string, err error) error {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return huma.Error404NotFound(msg)
	case domain.KindValidation:
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return huma.Error400BadRequest(msg, &huma.ErrorDetail{Location: ve.Field, Message: ve.Reason})
		}
		return huma.Error400BadRequest(msg, err)
	case domain.KindInvalidState:
		return huma.Error422UnprocessableEntity(msg, err)
	case domain.KindConcurrencyConflict:
		return huma.Error409Conflict(msg, err)
	default:
		log.Error().Err(err).Msg(msg)
		return huma.Error500InternalServerError(msg)
	}
}

type caller struct {
	TenantID uuid.UUID
	ActorID  string
}

// callerFrom reads the authenticated tenant and actor. Handlers are mounted
// behind the Auth middleware, so a missing tenant means a misrouted request.
func callerFrom(ctx context.Context) (caller, error) {
	tenantID, ok := middleware.TenantIDFromContext(ctx)
	if !ok || tenantID == uuid.Nil {
		return caller{}, huma.Error403Forbidden("missing tenant context")
	}
	actorID, _ := middleware.ActorIDFromContext(ctx)
	return caller{TenantID: tenantID, ActorID: actorID}, nil
}

// writerFrom is callerFrom for mutating operations: viewers are rejected.
func writerFrom(ctx context.Context) (caller, error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return c, err
	}
	if !writerRole(ctx) {
		return c, huma.Error403Forbidden("insufficient permissions")
	}
	return c, nil
}

func adminFrom(ctx context.Context) (caller, error) {
	c, err := callerFrom(ctx)
	if err != nil {
		return c, err
	}
	if !middleware.HasRole(ctx, middleware.RoleAdmin) {
		return c, huma.Error403Forbidden("admin role required")
	}
	return c, nil
}

func writerRole(ctx context.Context) bool {
	return middleware.HasRole(ctx, middleware.RoleAdmin, middleware.RoleAuditor)
}
