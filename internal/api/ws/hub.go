// Package ws streams audit events to browsers over WebSocket.
package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/server/middleware"
	redisstore "github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/store/redis"
)

// Subscriber is the receiving half of the event bus.
// *redisstore.PubSub satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// AuditLookup confirms an audit is visible to the caller's tenant.
type AuditLookup interface {
	GetAudit(ctx context.Context, tenantID, id uuid.UUID) (*domain.Audit, error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub Subscriber
	audits AuditLookup
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub Subscriber, audits AuditLookup) *Hub {
	return &Hub{pubsub: pubsub, audits: audits}
}

// ServeAudit handles WebSocket connections for one audit's live feed.
// Subscribes to Redis channel "audit:<tenantID>:<auditID>" and forwards
// every event as a text frame.
func (h *Hub) ServeAudit(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	auditID, err := uuid.Parse(chi.URLParam(r, "auditID"))
	if err != nil {
		http.Error(w, "invalid audit id", http.StatusBadRequest)
		return
	}

	if _, err := h.audits.GetAudit(r.Context(), tenantID, auditID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "audit not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("websocket audit lookup")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())
	channel := redisstore.AuditChannel(tenantID, auditID)

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
