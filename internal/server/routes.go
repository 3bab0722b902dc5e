package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/api/v1"
	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/api/ws"
)

func registerAPIRoutes(api huma.API, svc v1.Services) {
	v1.Register(api, svc)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/audits/{auditID}", hub.ServeAudit)
}
