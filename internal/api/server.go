package api

import (
	"chatwire/internal/audit"
	"chatwire/internal/relay"
	s "chatwire/internal/storage"

	"github.com/gin-gonic/gin"
)

func Serve(addr, dbPath string) error {
	r := gin.Default()

	db, err := s.Connect(dbPath)
	if err != nil {
		return err
	}

	hub := relay.NewHub()
	auditService := audit.NewService(db)
	handler := relay.NewEventHandler(hub, auditService)
	wh := NewWebSocketHandler(hub, handler, auditService)

	router := NewRouter(db, wh)
	router.RegisterRoutes(r)

	return r.Run(addr)
}
